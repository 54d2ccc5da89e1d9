package ringi

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validatorUtil = validator.New()

var (
	ErrRingiParamInvalid  = errors.New("ringi param invalid")
	ErrDefinitionNotFound = errors.New("ringi definition not found")
	ErrInstanceNotFound   = errors.New("ringi instance not found")
	ErrStepNotFound       = errors.New("ringi step not found")
	// ErrGraphInvalid: 定义图校验失败,错误明细用ValidateDefinition拿,这里只做哨兵
	ErrGraphInvalid = errors.New("ringi definition graph invalid")
	// ErrStateViolation: 非法状态迁移,比如submit非Draft实例,decide非Active步骤
	// 实例和步骤保持原样,不会部分更新
	ErrStateViolation = errors.New("ringi state violation")
	// ErrVersionConflict: 乐观锁版本不一致,调用方需要重新读取最新数据后重试
	ErrVersionConflict = errors.New("ringi version conflict")
	// ErrDataIntegrity: 已发布定义上找不到匹配的transition等,属于部署/迁移级别的bug
	// 不允许静默恢复,需要人工介入
	ErrDataIntegrity = errors.New("ringi data integrity broken")
	// ErrNoPermission: 操作人不是步骤的审批人
	ErrNoPermission = errors.New("ringi no permission")
)

type DefinitionStatus = string

const (
	DefinitionStatusDraft     DefinitionStatus = "draft"
	DefinitionStatusPublished DefinitionStatus = "published"
	DefinitionStatusArchived  DefinitionStatus = "archived"
)

func GetDefinitionStatusText(status DefinitionStatus) string {
	switch status {
	case DefinitionStatusDraft:
		return "草稿"
	case DefinitionStatusPublished:
		return "已发布"
	case DefinitionStatusArchived:
		return "已归档"
	}
	return "未知"
}

type InstanceStatus = string

const (
	InstanceStatusDraft InstanceStatus = "draft"
	// 提交中的过渡状态,submit内部经过pending落库时已经是in_progress
	InstanceStatusPending    InstanceStatus = "pending"
	InstanceStatusInProgress InstanceStatus = "in_progress"
	// 完成, 实例终止状态 普遍含义: 整条审批链通过
	InstanceStatusApproved InstanceStatus = "approved"
	// 拒绝, 实例终止状态 普遍含义: 某个审批人走了reject边到达End(rejected)
	InstanceStatusRejected InstanceStatus = "rejected"
	// 取消, 实例终止状态 普遍含义: 申请人主动撤回,和人工手动操作有关系
	InstanceStatusCancelled InstanceStatus = "canceled"
)

func IsOverInstanceStatus(status InstanceStatus) bool {
	return status == InstanceStatusApproved || status == InstanceStatusRejected || status == InstanceStatusCancelled
}

func GetInstanceStatusText(status InstanceStatus) string {
	switch status {
	case InstanceStatusDraft:
		return "草稿"
	case InstanceStatusPending:
		return "提交中"
	case InstanceStatusInProgress:
		return "审批中"
	case InstanceStatusApproved:
		return "已通过"
	case InstanceStatusRejected:
		return "已拒绝"
	case InstanceStatusCancelled:
		return "已取消"
	}
	return "未知"
}

type StepStatus = string

const (
	StepStatusPending StepStatus = "pending"
	StepStatusActive  StepStatus = "active"
	// 完成, 步骤终止状态 普遍含义: 审批人给出了approved/rejected决定
	StepStatusCompleted StepStatus = "completed"
	// 跳过, 步骤终止状态 普遍含义: 流程绕开了这个步骤(差回重做或者实例被取消)
	StepStatusSkipped StepStatus = "skipped"
)

func IsOverStepStatus(status StepStatus) bool {
	return status == StepStatusCompleted || status == StepStatusSkipped
}

func GetStepStatusText(status StepStatus) string {
	switch status {
	case StepStatusPending:
		return "等待中"
	case StepStatusActive:
		return "审批中"
	case StepStatusCompleted:
		return "已完成"
	case StepStatusSkipped:
		return "已跳过"
	}
	return "未知"
}

// Decision 审批决定,也是End节点的终态结果标签
type Decision = string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Trigger transition上的分支标签,只有approval节点的出边需要
type Trigger = string

const (
	TriggerApprove Trigger = "approve"
	TriggerReject  Trigger = "reject"
)

// decisionTrigger 决定对应要走的边
func decisionTrigger(decision Decision) (Trigger, bool) {
	switch decision {
	case DecisionApproved:
		return TriggerApprove, true
	case DecisionRejected:
		return TriggerReject, true
	}
	return "", false
}

// SequenceEntityType 连番counter的对象类型,(tenant_id, entity_type)粒度独立计数
type SequenceEntityType = string

const (
	SequenceEntityTypeInstance SequenceEntityType = "workflow_instance"
	SequenceEntityTypeStep     SequenceEntityType = "workflow_step"
)

const (
	DisplayPrefixInstance = "WF"
	DisplayPrefixStep     = "STEP"
)

func GetSequenceEntityPrefix(entityType SequenceEntityType) string {
	switch entityType {
	case SequenceEntityTypeInstance:
		return DisplayPrefixInstance
	case SequenceEntityTypeStep:
		return DisplayPrefixStep
	}
	return ""
}

// FormatDisplayID 人类可读的展示ID,形如 WF-42 / STEP-7
// DB里面只存display_number,前缀在应用层拼
func FormatDisplayID(entityType SequenceEntityType, displayNumber int64) string {
	return fmt.Sprintf("%s-%d", GetSequenceEntityPrefix(entityType), displayNumber)
}

// IsSeriousError 用于调用方决定日志级别,
// 严重错误定义：需要人工介入处理,
// 1. 绑定的定义数据坏掉了(ErrDataIntegrity),重试多少次都不会成功
// 2. 引用的定义/实例/步骤不存在,大概率是调用方传参或数据被误删
// 版本冲突和锁竞争是正常的并发行为,不算严重错误
func IsSeriousError(err error) bool {
	if err == nil {
		// 空error不算严重错误
		return false
	}
	causeErr := errors.Cause(err)
	if errors.Is(causeErr, ErrDataIntegrity) ||
		errors.Is(causeErr, ErrDefinitionNotFound) ||
		errors.Is(causeErr, ErrInstanceNotFound) ||
		errors.Is(causeErr, ErrStepNotFound) ||
		errors.Is(causeErr, ErrGraphInvalid) {
		return true
	}
	return false
}
