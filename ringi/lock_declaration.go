package ringi

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// 锁竞争类的错误都是暂时的,调用方可以稍后重试,不算严重错误
var (
	LockFailedError        = errors.New("lock failed")
	LockFailedTimeOutError = errors.New("wait time out")
)

type RingiLock interface {
	// NonBlockingSynchronized
	//  @Description:  1.非阻塞同步块,没拿到锁立刻返回LockFailedError
	//                 2.同一个ctx链路内可以重入
	//  @param ctx 原来的ctx
	//  @param key 锁的key,同一个实例的操作用同一个key串行化
	//  @param maxLockTimeDuration 锁最长持有时间,超时自动释放
	//  @param f 拿到锁之后执行的闭包
	//  @return error
	NonBlockingSynchronized(ctx context.Context, key string, maxLockTimeDuration time.Duration, f func(context.Context) error) error
}
