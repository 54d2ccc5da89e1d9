// Package tests 是 ringi-flow 的内部测试模块。
//
// ⚠️ 重要提示：此包位于 internal/ 目录下，受 Go 编译器保护，
// 外部项目无法导入（会得到编译错误）。
//
// 🔒 编译器保护
//
// 如果外部项目尝试导入：
//
//	import "github.com/blingmoon/ringi-flow/internal/tests"
//
// 将会得到编译错误：
//
//	use of internal package github.com/blingmoon/ringi-flow/internal/tests not allowed
//
// 📋 测试内容
//
// 此模块包含以下测试：
//   - 审批流程图校验测试（缺节点、坏边、成环、孤岛、表单配置）
//   - 流程定义生命周期测试（draft/published/archived 状态机与乐观锁）
//   - 审批实例测试（提交、审批、打回修改、取消、并发冲突）
//   - 连续编号测试（WF-n / STEP-n 编号不跳号、并发分配不重复）
//   - FormData 功能测试
//   - 端到端集成测试
//
// 🚀 运行测试
//
// 在项目根目录：
//
//	cd internal/tests
//	go test ./...
//
// 查看覆盖率：
//
//	go test -coverprofile=coverage.out -coverpkg=github.com/blingmoon/ringi-flow/ringi ./...
//	go tool cover -html=coverage.out
//
// 📚 更多信息
//
// 参考文档：
//   - README.md - 测试模块说明
package tests
