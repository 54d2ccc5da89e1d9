// Package ringiflow 提供多租户审批流(稟議)引擎。
//
// 这是一个轻量级、易嵌入的 Go 审批流引擎，定义和运行数据全部持久化。
//
// 主要特性：
//   - 版本化定义：草稿可改可删，发布后不可变，归档后不再创建新实例
//   - 图结构流程：start/approval/end 节点 + approve/reject 分支边，发布前整图校验
//   - 乐观锁：实例和步骤都带版本号，并发写入只有一个能成功
//   - 连续编号：每个租户独立的 WF-n / STEP-n 展示编号，不跳号
//   - 差回重交：审批人可以把申请退回草稿，申请人改完表单重新提交,历史步骤保留
//   - 数据持久化：基于 GORM，可使用 MySQL、PostgreSQL、SQLite 等数据库
//   - 并发安全：同一实例的操作串行化,支持本地锁和分布式锁（Redis）
//
// 基础使用示例:
//
//	package main
//
//	import (
//	    "context"
//	    "encoding/json"
//
//	    "github.com/blingmoon/ringi-flow/ringi"
//	    "gorm.io/driver/sqlite"
//	    "gorm.io/gorm"
//	)
//
//	func main() {
//	    // 1. 初始化数据库
//	    db, _ := gorm.Open(sqlite.Open("ringi.db"), &gorm.Config{})
//	    db.AutoMigrate(&ringi.RingiDefinitionPo{}, &ringi.RingiInstancePo{},
//	        &ringi.RingiStepPo{}, &ringi.RingiSequenceCounterPo{})
//
//	    // 2. 创建审批流服务
//	    ringiRepo := ringi.NewRingiRepo(db)
//	    ringiLock := ringi.NewLocalRingiLock()
//	    ringiService := ringi.NewRingiService(ringiRepo, ringiLock)
//
//	    // 3. 定义审批流程图
//	    graphJSON := `{
//	        "steps": [
//	            {"id": "start", "type": "start", "name": "发起"},
//	            {"id": "manager", "type": "approval", "name": "主管审批"},
//	            {"id": "approved", "type": "end", "name": "通过", "status": "approved"},
//	            {"id": "rejected", "type": "end", "name": "拒绝", "status": "rejected"}
//	        ],
//	        "transitions": [
//	            {"from": "start", "to": "manager"},
//	            {"from": "manager", "to": "approved", "trigger": "approve"},
//	            {"from": "manager", "to": "rejected", "trigger": "reject"}
//	        ]
//	    }`
//	    graph := &ringi.DefinitionGraph{}
//	    json.Unmarshal([]byte(graphJSON), graph)
//
//	    ctx := context.Background()
//	    definition, _ := ringiService.CreateDefinition(ctx, &ringi.CreateDefinitionReq{
//	        TenantID: "acme",
//	        Name:     "报销审批",
//	        Graph:    graph,
//	    })
//	    definition, _ = ringiService.PublishDefinition(ctx, &ringi.PublishDefinitionReq{
//	        DefinitionID:    definition.ID,
//	        TenantID:        "acme",
//	        ExpectedVersion: definition.Version,
//	    })
//
//	    // 4. 创建并提交审批实例
//	    instance, _ := ringiService.CreateInstance(ctx, &ringi.CreateInstanceReq{
//	        TenantID:     "acme",
//	        DefinitionID: definition.ID,
//	        FormData:     map[string]any{"amount": 1200},
//	        CreatedBy:    "alice",
//	    })
//	    instance, _ = ringiService.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
//	        InstanceID:      instance.ID,
//	        TenantID:        "acme",
//	        ExpectedVersion: instance.Version,
//	    })
//
//	    // 5. 审批当前步骤
//	    instance, _ = ringiService.Decide(ctx, &ringi.DecideReq{
//	        InstanceID:          instance.ID,
//	        StepID:              instance.CurrentStepID,
//	        TenantID:            "acme",
//	        Decision:            ringi.DecisionApproved,
//	        ExpectedStepVersion: 1,
//	    })
//	}
//
// 版本与并发控制：
//
// 实例和步骤都带 version 字段，写操作要求调用方带上期望版本：
//
//   - SubmitInstance / CancelInstance 校验实例的 version
//   - Decide / RequestChanges 校验步骤的 version
//   - 版本对不上返回 ErrVersionConflict，重新读最新数据后重试
//   - 同一实例的操作靠锁串行化，抢不到返回 LockFailedError，稍后重试即可
//
// 定义生命周期：
//
//	draft --PublishDefinition--> published --ArchiveDefinition--> archived
//
// 只有 draft 可以改和删；发布时会整图校验并把 approval 节点缺省的
// approve/reject 边补全到唯一匹配的 end 节点上；archived 不再接受新实例，
// 已经跑起来的实例不受影响。
//
// 更多示例和文档请访问: https://github.com/blingmoon/ringi-flow
package ringiflow
