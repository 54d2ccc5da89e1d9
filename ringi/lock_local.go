package ringi

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// NewLocalRingiLock 进程内锁,单机部署用它就够了,多副本部署换RedisRingiLock
func NewLocalRingiLock() RingiLock {
	return &localRingiLock{
		locks: &sync.Map{},
	}
}

type localRingiLock struct {
	locks *sync.Map // key -> *localLockInfo
}

type localLockInfo struct {
	mu       sync.Mutex
	value    string      // 持有者标识,释放时校验
	expireAt time.Time   // 过期时间
	timer    *time.Timer // 超时自动释放的定时器
}

// NonBlockingSynchronized 非阻塞同步执行
func (l *localRingiLock) NonBlockingSynchronized(ctx context.Context, key string, maxLockTimeDuration time.Duration, f func(context.Context) error) error {
	// ctx里已经带了这个key说明在锁内,重入直接执行
	valueInterface := ctx.Value(lockKey(key))
	_, ok := valueInterface.(string)
	if ok {
		return f(ctx)
	}

	value := l.getRandomValue()

	lockInfo, _ := l.locks.LoadOrStore(key, &localLockInfo{})
	info := lockInfo.(*localLockInfo)

	locked := info.mu.TryLock()
	if !locked {
		// 别人持有中,立刻返回,调用方自己决定要不要重试
		return errors.WithMessage(LockFailedError, "[localRingiLock.NonBlockingSynchronized] has been locked")
	}

	info.value = value
	info.expireAt = time.Now().Add(maxLockTimeDuration)

	// 闭包卡死的话到点自动释放,避免一个key永远锁死
	info.timer = time.AfterFunc(maxLockTimeDuration, func() {
		l.releaseKey(key, value)
	})

	// 带上锁标识,闭包里再对同一个key加锁就会走重入分支
	withKeyCtx := context.WithValue(ctx, lockKey(key), value)

	defer l.releaseKey(key, value)

	return f(withKeyCtx)
}

func (l *localRingiLock) getRandomValue() string {
	return fmt.Sprintf("%d_%d", rand.Int(), time.Now().UnixNano())
}

func (l *localRingiLock) releaseKey(key string, value string) {
	lockInfo, ok := l.locks.Load(key)
	if !ok {
		// 已经被释放过了
		return
	}

	info := lockInfo.(*localLockInfo)

	// 只有持有者本人能释放,防止超时释放和正常释放互相踩
	if info.value != value {
		log.Printf("[localRingiLock.releaseKey] value mismatch, expected: %s, got: %s", info.value, value)
		return
	}

	if info.timer != nil {
		info.timer.Stop()
	}

	info.mu.Unlock()

	l.locks.Delete(key)
}
