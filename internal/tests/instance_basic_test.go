package tests

import (
	"context"
	"testing"

	"github.com/blingmoon/ringi-flow/ringi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTwoLevelGraph 两级审批图: 经理 -> 财务
func newTwoLevelGraph() *ringi.DefinitionGraph {
	return &ringi.DefinitionGraph{
		Steps: []*ringi.StepDef{
			{ID: "start", Kind: ringi.StepKindStart, Name: "发起"},
			{ID: "manager", Kind: ringi.StepKindApproval, Name: "经理审批"},
			{ID: "finance", Kind: ringi.StepKindApproval, Name: "财务审批"},
			{ID: "approved_end", Kind: ringi.StepKindEnd, Name: "通过", Outcome: ringi.DecisionApproved},
			{ID: "rejected_end", Kind: ringi.StepKindEnd, Name: "否决", Outcome: ringi.DecisionRejected},
		},
		Transitions: []*ringi.TransitionDef{
			{From: "start", To: "manager"},
			{From: "manager", To: "finance", Trigger: ringi.TriggerApprove},
			{From: "manager", To: "rejected_end", Trigger: ringi.TriggerReject},
			{From: "finance", To: "approved_end", Trigger: ringi.TriggerApprove},
			{From: "finance", To: "rejected_end", Trigger: ringi.TriggerReject},
		},
	}
}

// publishTestDefinition 建一个定义并直接发布
func publishTestDefinition(t *testing.T, ctx context.Context, service ringi.RingiService, tenantID string, graph *ringi.DefinitionGraph) *ringi.Definition {
	created, err := service.CreateDefinition(ctx, &ringi.CreateDefinitionReq{
		TenantID:  tenantID,
		Name:      "测试审批流",
		Graph:     graph,
		CreatedBy: "admin",
	})
	require.NoError(t, err)
	published, err := service.PublishDefinition(ctx, &ringi.PublishDefinitionReq{
		DefinitionID:    created.ID,
		TenantID:        tenantID,
		ExpectedVersion: created.Version,
	})
	require.NoError(t, err)
	return published
}

// getInstanceDetail 取单个实例的详情
func getInstanceDetail(t *testing.T, ctx context.Context, service ringi.RingiService, instanceID string, tenantID string) *ringi.InstanceDetailEntity {
	details, err := service.QueryInstanceDetail(ctx, &ringi.QueryRingiInstanceParams{
		InstanceID: ringi.String(instanceID),
		TenantID:   ringi.String(tenantID),
		Page:       &ringi.Pager{Page: 1, Size: 1},
	})
	require.NoError(t, err)
	require.Len(t, details, 1)
	return details[0]
}

// findActiveStep 找实例当前激活的步骤
func findActiveStep(t *testing.T, ctx context.Context, service ringi.RingiService, instanceID string, tenantID string) *ringi.Step {
	detail := getInstanceDetail(t, ctx, service, instanceID, tenantID)
	for _, step := range detail.Steps {
		if step.Status == ringi.StepStatusActive {
			return step
		}
	}
	require.FailNowf(t, "no active step", "instanceID: %s", instanceID)
	return nil
}

// TestInstanceCreation 测试实例创建
func TestInstanceCreation(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	t.Run("创建实例拿到连续编号", func(t *testing.T) {
		definition := publishTestDefinition(t, ctx, service, "tenant_a", newTwoLevelGraph())

		first, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
			FormData:     map[string]any{"title": "差旅报销", "amount": 1800},
			CreatedBy:    "alice",
		})
		require.NoError(t, err)
		assert.Equal(t, ringi.InstanceStatusDraft, first.Status)
		assert.Equal(t, int32(1), first.Version)
		assert.Equal(t, int64(1), first.DisplayNumber)
		assert.Equal(t, "WF-1", first.DisplayID)
		assert.Equal(t, definition.Version, first.DefinitionVersion)
		assert.Empty(t, first.CurrentStepID)

		title, ok := first.FormData.GetString("title")
		assert.True(t, ok)
		assert.Equal(t, "差旅报销", title)

		second, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
			CreatedBy:    "bob",
		})
		require.NoError(t, err)
		assert.Equal(t, "WF-2", second.DisplayID)
	})

	t.Run("编号按租户独立", func(t *testing.T) {
		definition := publishTestDefinition(t, ctx, service, "tenant_b", newTwoLevelGraph())

		instance, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_b",
			DefinitionID: definition.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "WF-1", instance.DisplayID)
	})

	t.Run("草稿定义不能创建实例", func(t *testing.T) {
		draft, err := service.CreateDefinition(ctx, &ringi.CreateDefinitionReq{
			TenantID: "tenant_a",
			Name:     "还没发布",
			Graph:    newTwoLevelGraph(),
		})
		require.NoError(t, err)

		_, err = service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: draft.ID,
		})
		assert.ErrorIs(t, err, ringi.ErrStateViolation)
	})

	t.Run("归档定义不能创建实例", func(t *testing.T) {
		definition := publishTestDefinition(t, ctx, service, "tenant_a", newTwoLevelGraph())
		_, err := service.ArchiveDefinition(ctx, &ringi.ArchiveDefinitionReq{
			DefinitionID:    definition.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: definition.Version,
		})
		require.NoError(t, err)

		_, err = service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
		})
		assert.ErrorIs(t, err, ringi.ErrStateViolation)
	})

	t.Run("定义不存在", func(t *testing.T) {
		_, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: "no-such-definition",
		})
		assert.ErrorIs(t, err, ringi.ErrDefinitionNotFound)
	})
}

// TestInstanceSubmit 测试提交激活审批流
func TestInstanceSubmit(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	definition := publishTestDefinition(t, ctx, service, "tenant_a", newTwoLevelGraph())

	t.Run("提交激活第一个审批步骤", func(t *testing.T) {
		instance, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
			FormData:     map[string]any{"title": "办公用品", "amount": 300},
			CreatedBy:    "alice",
		})
		require.NoError(t, err)

		submitted, err := service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: instance.Version,
		})
		require.NoError(t, err)
		assert.Equal(t, ringi.InstanceStatusInProgress, submitted.Status)
		assert.Equal(t, instance.Version+1, submitted.Version)
		assert.NotEmpty(t, submitted.CurrentStepID)

		detail := getInstanceDetail(t, ctx, service, instance.ID, "tenant_a")
		require.Len(t, detail.Steps, 1)
		step := detail.Steps[0]
		assert.Equal(t, submitted.CurrentStepID, step.ID)
		assert.Equal(t, "manager", step.DefStepID)
		assert.Equal(t, "经理审批", step.Name)
		assert.Equal(t, ringi.StepStatusActive, step.Status)
		assert.Equal(t, int32(1), step.Version)
		assert.Greater(t, step.StartedAt, int64(0))
	})

	t.Run("带审批人提交", func(t *testing.T) {
		instance, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
			CreatedBy:    "alice",
		})
		require.NoError(t, err)

		submitted, err := service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: instance.Version,
			Approvers: []*ringi.StepApprover{
				{DefStepID: "manager", AssignedTo: "boss"},
				{DefStepID: "finance", AssignedTo: "cfo"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "boss", submitted.Approvers["manager"])
		assert.Equal(t, "cfo", submitted.Approvers["finance"])

		step := findActiveStep(t, ctx, service, instance.ID, "tenant_a")
		assert.Equal(t, "boss", step.AssignedTo)
	})

	t.Run("审批人没有覆盖全部节点", func(t *testing.T) {
		instance, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
		})
		require.NoError(t, err)

		_, err = service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: instance.Version,
			Approvers: []*ringi.StepApprover{
				{DefStepID: "manager", AssignedTo: "boss"},
			},
		})
		assert.ErrorIs(t, err, ringi.ErrRingiParamInvalid)
	})

	t.Run("审批人绑到不存在的节点", func(t *testing.T) {
		instance, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
		})
		require.NoError(t, err)

		_, err = service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: instance.Version,
			Approvers: []*ringi.StepApprover{
				{DefStepID: "manager", AssignedTo: "boss"},
				{DefStepID: "finance", AssignedTo: "cfo"},
				{DefStepID: "ghost", AssignedTo: "nobody"},
			},
		})
		assert.ErrorIs(t, err, ringi.ErrRingiParamInvalid)
	})

	t.Run("同一个节点不能绑两个审批人", func(t *testing.T) {
		instance, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
		})
		require.NoError(t, err)

		_, err = service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: instance.Version,
			Approvers: []*ringi.StepApprover{
				{DefStepID: "manager", AssignedTo: "boss"},
				{DefStepID: "manager", AssignedTo: "boss2"},
				{DefStepID: "finance", AssignedTo: "cfo"},
			},
		})
		assert.ErrorIs(t, err, ringi.ErrRingiParamInvalid)
	})

	t.Run("同一个期望版本提交两次", func(t *testing.T) {
		instance, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
		})
		require.NoError(t, err)

		_, err = service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: instance.Version,
		})
		require.NoError(t, err)

		// 拿着同一个版本号重放,第一个成功之后版本已经变了
		_, err = service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: instance.Version,
		})
		assert.ErrorIs(t, err, ringi.ErrVersionConflict)
	})

	t.Run("非草稿不能重复提交", func(t *testing.T) {
		instance, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
		})
		require.NoError(t, err)

		submitted, err := service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: instance.Version,
		})
		require.NoError(t, err)

		_, err = service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: submitted.Version,
		})
		assert.ErrorIs(t, err, ringi.ErrStateViolation)
	})

	t.Run("期望版本不对提交失败", func(t *testing.T) {
		instance, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
		})
		require.NoError(t, err)

		_, err = service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: instance.Version + 3,
		})
		assert.ErrorIs(t, err, ringi.ErrVersionConflict)
	})

	t.Run("实例不存在", func(t *testing.T) {
		_, err := service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      "no-such-instance",
			TenantID:        "tenant_a",
			ExpectedVersion: 1,
		})
		assert.ErrorIs(t, err, ringi.ErrInstanceNotFound)
	})
}

// TestDecideBasic 测试审批推进和终态
func TestDecideBasic(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	definition := publishTestDefinition(t, ctx, service, "tenant_a", newTwoLevelGraph())

	// submitInstance 造一个已提交的实例
	submitInstance := func(t *testing.T) *ringi.Instance {
		instance, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
			FormData:     map[string]any{"title": "测试单"},
			CreatedBy:    "alice",
		})
		require.NoError(t, err)
		submitted, err := service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: instance.Version,
		})
		require.NoError(t, err)
		return submitted
	}

	t.Run("逐级同意直到通过", func(t *testing.T) {
		submitted := submitInstance(t)
		assert.Equal(t, int32(2), submitted.Version)

		firstStep := findActiveStep(t, ctx, service, submitted.ID, "tenant_a")
		assert.Equal(t, "manager", firstStep.DefStepID)

		// 经理同意,推进到财务
		advanced, err := service.Decide(ctx, &ringi.DecideReq{
			InstanceID:          submitted.ID,
			StepID:              firstStep.ID,
			TenantID:            "tenant_a",
			Decision:            ringi.DecisionApproved,
			ExpectedStepVersion: firstStep.Version,
			Comment:             "同意",
			DecidedBy:           "boss",
		})
		require.NoError(t, err)
		assert.Equal(t, ringi.InstanceStatusInProgress, advanced.Status)
		assert.Equal(t, int32(3), advanced.Version)
		assert.NotEqual(t, firstStep.ID, advanced.CurrentStepID)
		assert.Equal(t, int64(0), advanced.CompletedAt)

		detail := getInstanceDetail(t, ctx, service, submitted.ID, "tenant_a")
		require.Len(t, detail.Steps, 2)
		assert.Equal(t, ringi.StepStatusCompleted, detail.Steps[0].Status)
		assert.Equal(t, ringi.DecisionApproved, detail.Steps[0].Decision)
		assert.Equal(t, "同意", detail.Steps[0].Comment)
		assert.Equal(t, int32(2), detail.Steps[0].Version)
		assert.Greater(t, detail.Steps[0].CompletedAt, int64(0))

		secondStep := detail.Steps[1]
		assert.Equal(t, "finance", secondStep.DefStepID)
		assert.Equal(t, ringi.StepStatusActive, secondStep.Status)
		assert.Equal(t, advanced.CurrentStepID, secondStep.ID)

		// 财务同意,整单通过
		finished, err := service.Decide(ctx, &ringi.DecideReq{
			InstanceID:          submitted.ID,
			StepID:              secondStep.ID,
			TenantID:            "tenant_a",
			Decision:            ringi.DecisionApproved,
			ExpectedStepVersion: secondStep.Version,
			DecidedBy:           "cfo",
		})
		require.NoError(t, err)
		assert.Equal(t, ringi.InstanceStatusApproved, finished.Status)
		assert.Equal(t, int32(4), finished.Version)
		assert.Empty(t, finished.CurrentStepID)
		assert.Greater(t, finished.CompletedAt, int64(0))
	})

	t.Run("拒绝直接否决", func(t *testing.T) {
		submitted := submitInstance(t)
		step := findActiveStep(t, ctx, service, submitted.ID, "tenant_a")

		rejected, err := service.Decide(ctx, &ringi.DecideReq{
			InstanceID:          submitted.ID,
			StepID:              step.ID,
			TenantID:            "tenant_a",
			Decision:            ringi.DecisionRejected,
			ExpectedStepVersion: step.Version,
			Comment:             "预算不够",
		})
		require.NoError(t, err)
		assert.Equal(t, ringi.InstanceStatusRejected, rejected.Status)
		assert.Empty(t, rejected.CurrentStepID)
		assert.Greater(t, rejected.CompletedAt, int64(0))

		detail := getInstanceDetail(t, ctx, service, submitted.ID, "tenant_a")
		require.Len(t, detail.Steps, 1)
		assert.Equal(t, ringi.DecisionRejected, detail.Steps[0].Decision)
		assert.Equal(t, "预算不够", detail.Steps[0].Comment)
	})

	t.Run("完成的步骤不能再审", func(t *testing.T) {
		submitted := submitInstance(t)
		step := findActiveStep(t, ctx, service, submitted.ID, "tenant_a")

		_, err := service.Decide(ctx, &ringi.DecideReq{
			InstanceID:          submitted.ID,
			StepID:              step.ID,
			TenantID:            "tenant_a",
			Decision:            ringi.DecisionApproved,
			ExpectedStepVersion: step.Version,
		})
		require.NoError(t, err)

		// 步骤版本还停在旧值,先撞上版本冲突
		_, err = service.Decide(ctx, &ringi.DecideReq{
			InstanceID:          submitted.ID,
			StepID:              step.ID,
			TenantID:            "tenant_a",
			Decision:            ringi.DecisionApproved,
			ExpectedStepVersion: step.Version,
		})
		assert.ErrorIs(t, err, ringi.ErrVersionConflict)

		// 带上完成后的版本,报状态不对
		_, err = service.Decide(ctx, &ringi.DecideReq{
			InstanceID:          submitted.ID,
			StepID:              step.ID,
			TenantID:            "tenant_a",
			Decision:            ringi.DecisionApproved,
			ExpectedStepVersion: step.Version + 1,
		})
		assert.ErrorIs(t, err, ringi.ErrStateViolation)
	})

	t.Run("决定值只认approved和rejected", func(t *testing.T) {
		submitted := submitInstance(t)
		step := findActiveStep(t, ctx, service, submitted.ID, "tenant_a")

		_, err := service.Decide(ctx, &ringi.DecideReq{
			InstanceID:          submitted.ID,
			StepID:              step.ID,
			TenantID:            "tenant_a",
			Decision:            "maybe",
			ExpectedStepVersion: step.Version,
		})
		assert.ErrorIs(t, err, ringi.ErrRingiParamInvalid)
	})

	t.Run("步骤和实例对不上", func(t *testing.T) {
		first := submitInstance(t)
		second := submitInstance(t)
		firstStep := findActiveStep(t, ctx, service, first.ID, "tenant_a")

		_, err := service.Decide(ctx, &ringi.DecideReq{
			InstanceID:          second.ID,
			StepID:              firstStep.ID,
			TenantID:            "tenant_a",
			Decision:            ringi.DecisionApproved,
			ExpectedStepVersion: firstStep.Version,
		})
		assert.ErrorIs(t, err, ringi.ErrRingiParamInvalid)
	})

	t.Run("步骤不存在", func(t *testing.T) {
		submitted := submitInstance(t)

		_, err := service.Decide(ctx, &ringi.DecideReq{
			InstanceID:          submitted.ID,
			StepID:              "no-such-step",
			TenantID:            "tenant_a",
			Decision:            ringi.DecisionApproved,
			ExpectedStepVersion: 1,
		})
		assert.ErrorIs(t, err, ringi.ErrStepNotFound)
	})
}

// TestDecideSingleApproval 单级审批图: 唯一步骤的决定直接定稿整单
func TestDecideSingleApproval(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	definition := publishTestDefinition(t, ctx, service, "tenant_a", newApprovalGraph())

	submitInstance := func(t *testing.T) *ringi.Instance {
		instance, err := service.CreateInstance(ctx, &ringi.CreateInstanceReq{
			TenantID:     "tenant_a",
			DefinitionID: definition.ID,
			CreatedBy:    "alice",
		})
		require.NoError(t, err)
		submitted, err := service.SubmitInstance(ctx, &ringi.SubmitInstanceReq{
			InstanceID:      instance.ID,
			TenantID:        "tenant_a",
			ExpectedVersion: instance.Version,
		})
		require.NoError(t, err)
		return submitted
	}

	t.Run("同意后整单通过", func(t *testing.T) {
		submitted := submitInstance(t)
		step := findActiveStep(t, ctx, service, submitted.ID, "tenant_a")
		assert.Equal(t, "manager", step.DefStepID)

		approved, err := service.Decide(ctx, &ringi.DecideReq{
			InstanceID:          submitted.ID,
			StepID:              step.ID,
			TenantID:            "tenant_a",
			Decision:            ringi.DecisionApproved,
			ExpectedStepVersion: step.Version,
			DecidedBy:           "boss",
		})
		require.NoError(t, err)
		assert.Equal(t, ringi.InstanceStatusApproved, approved.Status)
		assert.Empty(t, approved.CurrentStepID)
		assert.Greater(t, approved.CompletedAt, int64(0))

		detail := getInstanceDetail(t, ctx, service, submitted.ID, "tenant_a")
		require.Len(t, detail.Steps, 1)
		assert.Equal(t, ringi.StepStatusCompleted, detail.Steps[0].Status)
		assert.Equal(t, ringi.DecisionApproved, detail.Steps[0].Decision)
	})

	t.Run("拒绝后整单否决", func(t *testing.T) {
		submitted := submitInstance(t)
		step := findActiveStep(t, ctx, service, submitted.ID, "tenant_a")

		rejected, err := service.Decide(ctx, &ringi.DecideReq{
			InstanceID:          submitted.ID,
			StepID:              step.ID,
			TenantID:            "tenant_a",
			Decision:            ringi.DecisionRejected,
			ExpectedStepVersion: step.Version,
		})
		require.NoError(t, err)
		assert.Equal(t, ringi.InstanceStatusRejected, rejected.Status)

		detail := getInstanceDetail(t, ctx, service, submitted.ID, "tenant_a")
		require.Len(t, detail.Steps, 1)
		assert.Equal(t, ringi.StepStatusCompleted, detail.Steps[0].Status)
		assert.Equal(t, ringi.DecisionRejected, detail.Steps[0].Decision)
	})
}
