package main

// redis作为ringi服务的分布式锁后端,多副本部署时同一个实例的操作互斥

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blingmoon/ringi-flow/internal/commonregister"
	"github.com/blingmoon/ringi-flow/ringi"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	fmt.Println("=== Ringi Flow + Redis 分布式锁示例 ===")
	fmt.Println()

	// 1. 连接 Redis
	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		fmt.Printf("⚠️  无法连接 Redis (localhost:6379): %v\n", err)
		fmt.Println()
		fmt.Println("💡 先启动一个本地 Redis 再运行本示例：")
		fmt.Println("   $ docker run --rm -d -p 6379:6379 redis")
		return
	}
	fmt.Println("✓ Redis 连接成功")

	ringiLock := ringi.NewRedisRingiLock(redisClient)

	// 2. 先直接感受一下非阻塞锁的行为
	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("示例 1: 两个协程抢同一把锁")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	demoLockContention(ringiLock)

	// 3. 把 redis 锁装进 ringi 服务跑一遍审批
	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("示例 2: 用 redis 锁保护的审批流程")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	runApprovalWithRedisLock(ringiLock)

	fmt.Println()
	fmt.Println("✅ 所有示例执行完成！")
}

// demoLockContention 同一个key只有一个协程能进临界区,另一个立刻拿到LockFailedError
func demoLockContention(ringiLock ringi.RingiLock) {
	var wg sync.WaitGroup
	entered := make(chan struct{})
	for i := 1; i <= 2; i++ {
		wg.Add(1)
		go func(no int) {
			defer wg.Done()
			if no == 2 {
				// 等1号先进临界区
				<-entered
			}
			err := ringiLock.NonBlockingSynchronized(context.Background(), "demo:contention", 10*time.Second, func(ctx context.Context) error {
				if no == 1 {
					close(entered)
					fmt.Printf("  [协程%d] 拿到锁,持有 300ms...\n", no)
					time.Sleep(300 * time.Millisecond)
					fmt.Printf("  [协程%d] 释放锁 ✓\n", no)
					return nil
				}
				fmt.Printf("  [协程%d] 拿到锁 ✓\n", no)
				return nil
			})
			if errors.Is(err, ringi.LockFailedError) {
				fmt.Printf("  [协程%d] 没抢到锁,立刻返回 ✓\n", no)
			} else if err != nil {
				panic(err)
			}
		}(i)
	}
	wg.Wait()
}

// runApprovalWithRedisLock 正常的两级审批,只是把本地锁换成了redis锁
func runApprovalWithRedisLock(ringiLock ringi.RingiLock) {
	db, err := gorm.Open(sqlite.Open("ringi_redis.db"), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	err = db.AutoMigrate(
		&ringi.RingiDefinitionPo{},
		&ringi.RingiInstancePo{},
		&ringi.RingiStepPo{},
		&ringi.RingiSequenceCounterPo{},
	)
	if err != nil {
		panic(err)
	}
	ringiService := ringi.NewRingiService(ringi.NewRingiRepo(db), ringiLock)

	ctx := context.Background()
	tenantID := "redis-demo"
	definitionID, err := commonregister.RegisterExpenseApprovalDefinition(ctx, ringiService, tenantID)
	if err != nil {
		panic(err)
	}

	instance, err := ringiService.CreateInstance(ctx, &ringi.CreateInstanceReq{
		TenantID:     tenantID,
		DefinitionID: definitionID,
		FormData:     map[string]any{"title": "客户拜访打车", "amount": 86, "category": "差旅"},
		CreatedBy:    "alice",
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("  [填单] %s 创建成功 ✓\n", instance.DisplayID)

	_, err = ringiService.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
		InstanceID:      instance.ID,
		TenantID:        tenantID,
		ExpectedVersion: instance.Version,
	})
	if err != nil {
		panic(err)
	}
	fmt.Println("  [提交] 进入审批 ✓")

	// 一路同意到结束
	for {
		details, err := ringiService.QueryInstanceDetail(ctx, &ringi.QueryRingiInstanceParams{
			InstanceID: ringi.String(instance.ID),
			TenantID:   ringi.String(tenantID),
			Page:       &ringi.Pager{Page: 1, Size: 1},
		})
		if err != nil {
			panic(err)
		}
		if len(details) == 0 {
			panic("instance not found")
		}
		var activeStep *ringi.Step
		for _, step := range details[0].Steps {
			if step.Status == ringi.StepStatusActive {
				activeStep = step
			}
		}
		if activeStep == nil {
			fmt.Printf("  [结束] 实例状态: %s ✅\n", ringi.GetInstanceStatusText(details[0].Instance.Status))
			break
		}

		result, err := ringiService.Decide(ctx, &ringi.DecideReq{
			InstanceID:          instance.ID,
			StepID:              activeStep.ID,
			TenantID:            tenantID,
			Decision:            ringi.DecisionApproved,
			ExpectedStepVersion: activeStep.Version,
			Comment:             "同意",
		})
		if err != nil {
			panic(err)
		}
		fmt.Printf("  [审批] %s 通过 ✓ (实例状态: %s)\n", activeStep.Name, ringi.GetInstanceStatusText(result.Status))
	}
}
