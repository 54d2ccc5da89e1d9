package tests

import (
	"testing"

	"github.com/blingmoon/ringi-flow/ringi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newApprovalGraph 构造一张合法的单审批节点图,各用例在它基础上改出想要的问题
func newApprovalGraph() *ringi.DefinitionGraph {
	return &ringi.DefinitionGraph{
		Steps: []*ringi.StepDef{
			{ID: "start", Kind: ringi.StepKindStart, Name: "发起"},
			{ID: "manager", Kind: ringi.StepKindApproval, Name: "经理审批"},
			{ID: "approved_end", Kind: ringi.StepKindEnd, Name: "通过", Outcome: ringi.DecisionApproved},
			{ID: "rejected_end", Kind: ringi.StepKindEnd, Name: "否决", Outcome: ringi.DecisionRejected},
		},
		Transitions: []*ringi.TransitionDef{
			{From: "start", To: "manager"},
			{From: "manager", To: "approved_end", Trigger: ringi.TriggerApprove},
			{From: "manager", To: "rejected_end", Trigger: ringi.TriggerReject},
		},
	}
}

// findGraphError 按错误码查找校验结果,没有返回nil
func findGraphError(graphErrors []*ringi.GraphError, code ringi.GraphErrorCode) *ringi.GraphError {
	for _, graphError := range graphErrors {
		if graphError.Code == code {
			return graphError
		}
	}
	return nil
}

// TestValidateDefinitionGraph 测试定义图校验的各类错误码
func TestValidateDefinitionGraph(t *testing.T) {
	t.Run("合法图校验通过", func(t *testing.T) {
		graphErrors := ringi.ValidateDefinitionGraph(newApprovalGraph())
		assert.Empty(t, graphErrors)
	})

	t.Run("空图一次性报出所有缺失", func(t *testing.T) {
		graphErrors := ringi.ValidateDefinitionGraph(nil)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeMissingStartStep))
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeMissingEndStep))
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeMissingApprovalStep))
	})

	t.Run("缺少开始节点", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Steps = graph.Steps[1:]
		graph.Transitions = graph.Transitions[1:]

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeMissingStartStep))
	})

	t.Run("多个开始节点", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Steps = append(graph.Steps, &ringi.StepDef{ID: "start2", Kind: ringi.StepKindStart, Name: "另一个入口"})
		graph.Transitions = append(graph.Transitions, &ringi.TransitionDef{From: "start2", To: "manager"})

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeMultipleStartSteps))
	})

	t.Run("开始节点出边数量不对", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Transitions = append(graph.Transitions, &ringi.TransitionDef{From: "start", To: "approved_end"})

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeInvalidStartTransition))
	})

	t.Run("缺少结束节点", func(t *testing.T) {
		graph := &ringi.DefinitionGraph{
			Steps: []*ringi.StepDef{
				{ID: "start", Kind: ringi.StepKindStart, Name: "发起"},
				{ID: "manager", Kind: ringi.StepKindApproval, Name: "经理审批"},
			},
			Transitions: []*ringi.TransitionDef{
				{From: "start", To: "manager"},
			},
		}

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeMissingEndStep))
	})

	t.Run("结束节点终态非法", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Steps[2].Outcome = "done"

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		graphError := findGraphError(graphErrors, ringi.GraphErrorCodeInvalidEndOutcome)
		require.NotNil(t, graphError)
		assert.Equal(t, "approved_end", graphError.StepID)
	})

	t.Run("结束节点不能有出边", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Transitions = append(graph.Transitions, &ringi.TransitionDef{From: "approved_end", To: "manager", Trigger: ringi.TriggerApprove})

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeInvalidEndTransition))
	})

	t.Run("缺少审批节点", func(t *testing.T) {
		graph := &ringi.DefinitionGraph{
			Steps: []*ringi.StepDef{
				{ID: "start", Kind: ringi.StepKindStart, Name: "发起"},
				{ID: "approved_end", Kind: ringi.StepKindEnd, Name: "通过", Outcome: ringi.DecisionApproved},
			},
			Transitions: []*ringi.TransitionDef{
				{From: "start", To: "approved_end"},
			},
		}

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeMissingApprovalStep))
	})

	t.Run("节点id重复", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Steps = append(graph.Steps, &ringi.StepDef{ID: "manager", Kind: ringi.StepKindApproval, Name: "重名节点"})

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		graphError := findGraphError(graphErrors, ringi.GraphErrorCodeDuplicateStepID)
		require.NotNil(t, graphError)
		assert.Equal(t, "manager", graphError.StepID)
	})

	t.Run("节点id为空", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Steps = append(graph.Steps, &ringi.StepDef{ID: "", Kind: ringi.StepKindApproval, Name: "没有id"})

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeInvalidStepID))
	})

	t.Run("节点类型未知", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Steps = append(graph.Steps, &ringi.StepDef{ID: "gateway", Kind: "gateway", Name: "网关"})

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		graphError := findGraphError(graphErrors, ringi.GraphErrorCodeInvalidStepKind)
		require.NotNil(t, graphError)
		assert.Equal(t, "gateway", graphError.StepID)
	})

	t.Run("边引用不存在的节点", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Transitions = append(graph.Transitions, &ringi.TransitionDef{From: "manager", To: "ghost", Trigger: ringi.TriggerApprove})

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeInvalidTransitionRef))
	})

	t.Run("审批出边触发标签非法", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Transitions[1].Trigger = "maybe"

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		graphError := findGraphError(graphErrors, ringi.GraphErrorCodeInvalidTransitionTrigger)
		require.NotNil(t, graphError)
		assert.Equal(t, "manager", graphError.StepID)
	})

	t.Run("同触发标签的出边重复", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Transitions = append(graph.Transitions, &ringi.TransitionDef{From: "manager", To: "rejected_end", Trigger: ringi.TriggerApprove})

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeDuplicateTransitionTrigger))
	})

	t.Run("审批节点两条分支全缺", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Steps = append(graph.Steps, &ringi.StepDef{ID: "finance", Kind: ringi.StepKindApproval, Name: "财务审批"})
		// finance没有任何出边,同时也是孤岛
		graphErrors := ringi.ValidateDefinitionGraph(graph)
		graphError := findGraphError(graphErrors, ringi.GraphErrorCodeMissingApprovalTransition)
		require.NotNil(t, graphError)
		assert.Equal(t, "finance", graphError.StepID)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeOrphanedStep))
	})

	t.Run("孤岛节点不可达", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Steps = append(graph.Steps,
			&ringi.StepDef{ID: "island", Kind: ringi.StepKindApproval, Name: "孤岛审批"},
			&ringi.StepDef{ID: "island_end", Kind: ringi.StepKindEnd, Name: "孤岛终点", Outcome: ringi.DecisionApproved},
		)
		graph.Transitions = append(graph.Transitions,
			&ringi.TransitionDef{From: "island", To: "island_end", Trigger: ringi.TriggerApprove},
			&ringi.TransitionDef{From: "island", To: "rejected_end", Trigger: ringi.TriggerReject},
		)

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		graphError := findGraphError(graphErrors, ringi.GraphErrorCodeOrphanedStep)
		require.NotNil(t, graphError)
		assert.Equal(t, "island", graphError.StepID)
	})

	t.Run("审批节点成环", func(t *testing.T) {
		graph := &ringi.DefinitionGraph{
			Steps: []*ringi.StepDef{
				{ID: "start", Kind: ringi.StepKindStart, Name: "发起"},
				{ID: "first", Kind: ringi.StepKindApproval, Name: "一级审批"},
				{ID: "second", Kind: ringi.StepKindApproval, Name: "二级审批"},
				{ID: "approved_end", Kind: ringi.StepKindEnd, Name: "通过", Outcome: ringi.DecisionApproved},
				{ID: "rejected_end", Kind: ringi.StepKindEnd, Name: "否决", Outcome: ringi.DecisionRejected},
			},
			Transitions: []*ringi.TransitionDef{
				{From: "start", To: "first"},
				{From: "first", To: "second", Trigger: ringi.TriggerApprove},
				{From: "first", To: "rejected_end", Trigger: ringi.TriggerReject},
				{From: "second", To: "approved_end", Trigger: ringi.TriggerApprove},
				// second拒绝回到first,构成环
				{From: "second", To: "first", Trigger: ringi.TriggerReject},
			},
		}

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeCycleDetected))
	})

	t.Run("表单字段配置错误", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Form = &ringi.FormSchema{
			Fields: []*ringi.FormFieldDef{
				{ID: "", Type: "text", Label: "没有id"},
				{ID: "amount", Type: "number", Label: "金额"},
				{ID: "amount", Type: "number", Label: "重复id"},
				{ID: "reason", Type: "text", Label: ""},
				{ID: "level", Type: "slider", Label: "级别"},
				{ID: "category", Type: "select", Label: "类别"},
			},
		}

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		fieldErrorCount := 0
		for _, graphError := range graphErrors {
			if graphError.Code == ringi.GraphErrorCodeInvalidFormField {
				fieldErrorCount++
			}
		}
		// 空id、重复id、空label、未知类型、select缺options各报一条
		assert.Equal(t, 5, fieldErrorCount)
	})

	t.Run("合法表单通过", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Form = &ringi.FormSchema{
			Fields: []*ringi.FormFieldDef{
				{ID: "title", Type: "text", Label: "标题", Required: true},
				{ID: "amount", Type: "number", Label: "金额", Required: true},
				{ID: "category", Type: "select", Label: "类别", Options: []string{"差旅", "办公", "其他"}},
				{ID: "note", Type: "textarea", Label: "备注"},
			},
		}

		graphErrors := ringi.ValidateDefinitionGraph(graph)
		assert.Empty(t, graphErrors)
	})
}

// TestNormalizeDefinitionGraph 测试发布前的图补全和规整
func TestNormalizeDefinitionGraph(t *testing.T) {
	t.Run("缺reject分支自动补到否决终点", func(t *testing.T) {
		graph := newApprovalGraph()
		// 只保留start出边和approve分支
		graph.Transitions = graph.Transitions[:2]

		normalized, graphErrors := ringi.NormalizeDefinitionGraph(graph)
		require.Empty(t, graphErrors)
		require.NotNil(t, normalized)

		derived := normalized.FindTransition("manager", ringi.TriggerReject)
		require.NotNil(t, derived)
		assert.Equal(t, "rejected_end", derived.To)
	})

	t.Run("缺approve分支自动补到通过终点", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Transitions = []*ringi.TransitionDef{
			graph.Transitions[0],
			{From: "manager", To: "rejected_end", Trigger: ringi.TriggerReject},
		}

		normalized, graphErrors := ringi.NormalizeDefinitionGraph(graph)
		require.Empty(t, graphErrors)
		require.NotNil(t, normalized)

		derived := normalized.FindTransition("manager", ringi.TriggerApprove)
		require.NotNil(t, derived)
		assert.Equal(t, "approved_end", derived.To)
	})

	t.Run("候选终点有多个时补全失败", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Steps = append(graph.Steps, &ringi.StepDef{ID: "rejected_end2", Kind: ringi.StepKindEnd, Name: "另一个否决", Outcome: ringi.DecisionRejected})
		graph.Transitions = graph.Transitions[:2]
		// rejected_end和rejected_end2都是候选,无法决定补到哪个
		normalized, graphErrors := ringi.NormalizeDefinitionGraph(graph)
		assert.Nil(t, normalized)
		assert.NotNil(t, findGraphError(graphErrors, ringi.GraphErrorCodeMissingApprovalTransition))
	})

	t.Run("合法图原样保留已有的边", func(t *testing.T) {
		graph := newApprovalGraph()
		normalized, graphErrors := ringi.NormalizeDefinitionGraph(graph)
		require.Empty(t, graphErrors)
		assert.Len(t, normalized.Transitions, 3)
	})

	t.Run("开始节点出边的触发标签被清空", func(t *testing.T) {
		graph := newApprovalGraph()
		graph.Transitions[0].Trigger = ringi.TriggerApprove

		normalized, graphErrors := ringi.NormalizeDefinitionGraph(graph)
		require.Empty(t, graphErrors)
		startTransition := normalized.FindTransition("start", "")
		require.NotNil(t, startTransition)
		assert.Equal(t, "manager", startTransition.To)
	})
}
