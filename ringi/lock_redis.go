package ringi

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type lockKey string

const (
	delCommand = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`
	waitMaxTime = 20
)

// NewRedisRingiLock 多副本部署时用redis做互斥,redisClient传*redis.Client或者集群客户端都行
func NewRedisRingiLock(redisClient redis.Cmdable) RingiLock {
	return &redisRingiLock{redisClient: redisClient}
}

type redisRingiLock struct {
	redisClient redis.Cmdable
}

func (d *redisRingiLock) NonBlockingSynchronized(ctx context.Context, key string, maxLockTimeDuration time.Duration, f func(ctx2 context.Context) error) error {
	valueInterface := ctx.Value(lockKey(key))
	_, ok := valueInterface.(string)
	if !ok {
		// 之前没有上锁,SetNX抢一把
		value := d.getRandomValue()

		isLock, err := d.redisClient.SetNX(ctx, key, value, maxLockTimeDuration).Result()
		if err != nil {
			return errors.WithMessagef(LockFailedError, "[redisRingiLock.NonBlockingSynchronized], err:%v", err)
		}
		if !isLock {
			return errors.WithMessage(LockFailedError, "[redisRingiLock.NonBlockingSynchronized] has been locked")
		}

		withKeyCtx := context.WithValue(ctx, lockKey(key), value)
		defer d.releaseKey(key, value)
		return f(withKeyCtx)
	}
	// 之前成功上锁了,重入直接执行
	return f(ctx)
}

func (d *redisRingiLock) getRandomValue() string {
	return fmt.Sprintf("%d_%d", rand.Int(), time.Now().UnixNano())
}

func (d *redisRingiLock) releaseKey(key string, value string) {
	// 原ctx可能已经cancel,释放锁必须用新的context,否则锁会留到超时
	replyInterface, err := d.redisClient.Eval(context.Background(), delCommand, []string{key}, value).Result()
	if err != nil {
		log.Printf("[redisRingiLock.releaseKey] release key failed, err:%v", err)
		return
	}
	reply, ok := replyInterface.(int64)
	if !ok {
		log.Printf("[redisRingiLock.releaseKey] reply is not int64, reply:%v", replyInterface)
		return
	}
	if reply != 1 {
		// 只有用自己的value删成功才算释放,删0说明锁已经易主或过期
		log.Printf("[redisRingiLock.releaseKey] reply is not 1, reply:%v", reply)
		return
	}
}
