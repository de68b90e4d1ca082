package orderstore

import "github.com/redis/go-redis/v9"

// addScript creates an order unless its hash already exists.
//
// KEYS: order hash, history list, order id set
// ARGV: order id, n history entries, entry 1..n, hash field/value pairs
var addScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
local n = tonumber(ARGV[2])
for i = 3, 2 + n do
  redis.call('RPUSH', KEYS[2], ARGV[i])
end
redis.call('HSET', KEYS[1], unpack(ARGV, 3 + n))
redis.call('SADD', KEYS[3], ARGV[1])
return 1
`)

// updateStatusScript is the conditional status write.
//
// KEYS: order hash, history list
// ARGV: expected version, new status, history entry, milestone field or "", timestamp
//
// Returns {-1} if the order is missing, {0, version} on a version mismatch
// and {1, hash fields, history} after a successful write.
var updateStatusScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1}
end
local v = tonumber(redis.call('HGET', KEYS[1], 'version'))
if v ~= tonumber(ARGV[1]) then
  return {0, v}
end
redis.call('HSET', KEYS[1], 'status', ARGV[2], 'version', v + 1)
redis.call('RPUSH', KEYS[2], ARGV[3])
if ARGV[4] ~= '' then
  redis.call('HSETNX', KEYS[1], ARGV[4], ARGV[5])
end
return {1, redis.call('HGETALL', KEYS[1]), redis.call('LRANGE', KEYS[2], 0, -1)}
`)

// updateDetailsScript overwrites descriptive fields of an existing order.
//
// KEYS: order hash, history list
// ARGV: hash field/value pairs
//
// Returns {-1} if the order is missing and {1, hash fields, history} otherwise.
var updateDetailsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1}
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return {1, redis.call('HGETALL', KEYS[1]), redis.call('LRANGE', KEYS[2], 0, -1)}
`)

// deleteScript removes an order with its history and index entry.
//
// KEYS: order hash, history list, order id set
// ARGV: order id
var deleteScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('DEL', KEYS[1], KEYS[2])
redis.call('SREM', KEYS[3], ARGV[1])
return 1
`)
