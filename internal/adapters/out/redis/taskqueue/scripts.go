package taskqueue

import "github.com/redis/go-redis/v9"

// Scripts build per-task and per-role key names from the prefix in ARGV, so
// a task id popped from a queue can be resolved inside the same script.
// The store therefore targets a single Redis node, not a cluster.

// retireActive is shared by the scripts that retire an order's active task.
// It returns 1 when a queued or claimed task was marked released.
const retireActive = `
local function retire_active(prefix, active_key, leases_key)
  local id = redis.call('GET', active_key)
  if not id then
    return 0
  end
  redis.call('DEL', active_key)
  local key = prefix .. ':task:' .. id
  local state = redis.call('HGET', key, 'state')
  local role = redis.call('HGET', key, 'role')
  if state == 'queued' then
    redis.call('ZREM', prefix .. ':queue:' .. role, id)
  elseif state == 'claimed' then
    redis.call('ZREM', leases_key, id)
    redis.call('SREM', prefix .. ':tasks:' .. role .. ':claimed', id)
  else
    return 0
  end
  redis.call('HSET', key, 'state', 'released')
  redis.call('HDEL', key, 'claimed_by', 'claim_expiry')
  return 1
end
`

// settleScript retires the order's active task and queues the next one,
// unless the order was already settled at this version or later.
//
// KEYS: settled marker, active marker, lease index, sequence counter
// ARGV: key prefix, order version, then optionally
// task id, order id, transition, role, created_at ms
//
// Returns {applied, withdrawn, queued}.
var settleScript = redis.NewScript(retireActive + `
local settled = redis.call('GET', KEYS[1])
if settled == 'closed' or (settled and tonumber(settled) >= tonumber(ARGV[2])) then
  return {0, 0, 0}
end
local withdrawn = retire_active(ARGV[1], KEYS[2], KEYS[3])
redis.call('SET', KEYS[1], ARGV[2])
if #ARGV < 7 then
  return {1, withdrawn, 0}
end
local seq = redis.call('INCR', KEYS[4])
redis.call('HSET', ARGV[1] .. ':task:' .. ARGV[3], 'order_id', ARGV[4], 'order_version', ARGV[2],
  'transition', ARGV[5], 'role', ARGV[6], 'state', 'queued', 'created_at', ARGV[7], 'seq', seq)
redis.call('ZADD', ARGV[1] .. ':queue:' .. ARGV[6], seq, ARGV[3])
redis.call('SET', KEYS[2], ARGV[3])
return {1, withdrawn, 1}
`)

// claimScript pops the oldest queued task of a role and leases it.
//
// KEYS: role queue, lease index, role claimed set
// ARGV: key prefix, agent id, lease expiry ms
var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGE', KEYS[1], 0, 0)
if #ids == 0 then
  return false
end
local id = ids[1]
local key = ARGV[1] .. ':task:' .. id
redis.call('ZREM', KEYS[1], id)
redis.call('HSET', key, 'state', 'claimed', 'claimed_by', ARGV[2], 'claim_expiry', ARGV[3])
redis.call('ZADD', KEYS[2], ARGV[3], id)
redis.call('SADD', KEYS[3], id)
return {id, redis.call('HGETALL', key)}
`)

// completeScript finishes a claimed task.
//
// KEYS: task hash, lease index
// ARGV: key prefix, task id, agent id, now ms
//
// Returns {outcome, ...}: missing, foreign, expired, {not_claimed, state},
// {already, hash} or {ok, hash}.
var completeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {'missing'}
end
local state = redis.call('HGET', KEYS[1], 'state')
if state == 'completed' then
  if redis.call('HGET', KEYS[1], 'completed_by') == ARGV[3] then
    return {'already', redis.call('HGETALL', KEYS[1])}
  end
  return {'foreign'}
end
if state ~= 'claimed' then
  return {'not_claimed', state}
end
if redis.call('HGET', KEYS[1], 'claimed_by') ~= ARGV[3] then
  return {'foreign'}
end
if tonumber(redis.call('HGET', KEYS[1], 'claim_expiry')) <= tonumber(ARGV[4]) then
  return {'expired'}
end
local role = redis.call('HGET', KEYS[1], 'role')
local active = ARGV[1] .. ':task:active:' .. redis.call('HGET', KEYS[1], 'order_id')
redis.call('HSET', KEYS[1], 'state', 'completed', 'completed_by', ARGV[3], 'completed_at', ARGV[4])
redis.call('HDEL', KEYS[1], 'claimed_by', 'claim_expiry')
redis.call('ZREM', KEYS[2], ARGV[2])
redis.call('SREM', ARGV[1] .. ':tasks:' .. role .. ':claimed', ARGV[2])
if redis.call('GET', active) == ARGV[2] then
  redis.call('DEL', active)
end
return {'ok', redis.call('HGETALL', KEYS[1])}
`)

// releaseScript returns a task claimed by the caller to its queue, at its
// original position.
//
// KEYS: task hash, lease index
// ARGV: key prefix, task id, agent id
var releaseScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {'missing'}
end
local state = redis.call('HGET', KEYS[1], 'state')
if state ~= 'claimed' then
  return {'not_claimed', state}
end
if redis.call('HGET', KEYS[1], 'claimed_by') ~= ARGV[3] then
  return {'foreign'}
end
local role = redis.call('HGET', KEYS[1], 'role')
redis.call('HSET', KEYS[1], 'state', 'queued')
redis.call('HDEL', KEYS[1], 'claimed_by', 'claim_expiry')
redis.call('ZREM', KEYS[2], ARGV[2])
redis.call('SREM', ARGV[1] .. ':tasks:' .. role .. ':claimed', ARGV[2])
redis.call('ZADD', ARGV[1] .. ':queue:' .. role, redis.call('HGET', KEYS[1], 'seq'), ARGV[2])
return {'ok', redis.call('HGETALL', KEYS[1])}
`)

// reclaimScript requeues every claim whose lease expired at or before now.
//
// KEYS: lease index
// ARGV: key prefix, now ms
var reclaimScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
local n = 0
for _, id in ipairs(ids) do
  local key = ARGV[1] .. ':task:' .. id
  if redis.call('HGET', key, 'state') == 'claimed' then
    local role = redis.call('HGET', key, 'role')
    redis.call('HSET', key, 'state', 'queued')
    redis.call('HDEL', key, 'claimed_by', 'claim_expiry')
    redis.call('SREM', ARGV[1] .. ':tasks:' .. role .. ':claimed', id)
    redis.call('ZADD', ARGV[1] .. ':queue:' .. role, redis.call('HGET', key, 'seq'), id)
    n = n + 1
  end
  redis.call('ZREM', KEYS[1], id)
end
return n
`)

// withdrawScript retires the order's active task and closes the order to
// later settles.
//
// KEYS: settled marker, active marker, lease index
// ARGV: key prefix
var withdrawScript = redis.NewScript(retireActive + `
local n = retire_active(ARGV[1], KEYS[2], KEYS[3])
redis.call('SET', KEYS[1], 'closed')
return n
`)
