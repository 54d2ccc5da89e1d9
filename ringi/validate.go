package ringi

import (
	"fmt"
	"strings"
)

type GraphErrorCode = string

const (
	GraphErrorCodeMissingStartStep           GraphErrorCode = "missing_start_step"
	GraphErrorCodeMultipleStartSteps         GraphErrorCode = "multiple_start_steps"
	GraphErrorCodeInvalidStartTransition     GraphErrorCode = "invalid_start_transition"
	GraphErrorCodeMissingEndStep             GraphErrorCode = "missing_end_step"
	GraphErrorCodeInvalidEndOutcome          GraphErrorCode = "invalid_end_outcome"
	GraphErrorCodeInvalidEndTransition       GraphErrorCode = "invalid_end_transition"
	GraphErrorCodeMissingApprovalStep        GraphErrorCode = "missing_approval_step"
	GraphErrorCodeDuplicateStepID            GraphErrorCode = "duplicate_step_id"
	GraphErrorCodeInvalidStepID              GraphErrorCode = "invalid_step_id"
	GraphErrorCodeInvalidStepKind            GraphErrorCode = "invalid_step_kind"
	GraphErrorCodeInvalidTransitionRef       GraphErrorCode = "invalid_transition_ref"
	GraphErrorCodeInvalidTransitionTrigger   GraphErrorCode = "invalid_transition_trigger"
	GraphErrorCodeDuplicateTransitionTrigger GraphErrorCode = "duplicate_transition_trigger"
	GraphErrorCodeMissingApprovalTransition  GraphErrorCode = "missing_approval_transition"
	GraphErrorCodeOrphanedStep               GraphErrorCode = "orphaned_step"
	GraphErrorCodeCycleDetected              GraphErrorCode = "cycle_detected"
	GraphErrorCodeInvalidFormField           GraphErrorCode = "invalid_form_field"
)

// 表单字段支持的类型
var formFieldTypes = map[string]bool{
	"text":     true,
	"textarea": true,
	"number":   true,
	"date":     true,
	"select":   true,
	"checkbox": true,
}

/**
 * GraphError 定义图校验的单条错误
 * 校验一次性收集全部问题,不会碰到第一条就停,方便前端标注整张图
 */
type GraphError struct {
	Code GraphErrorCode `json:"code"`
	// StepID 出问题的节点,图级别的错误(比如缺start)留空
	StepID  string `json:"step_id,omitempty"`
	Message string `json:"message"`
}

func (graphError *GraphError) Error() string {
	if graphError.StepID == "" {
		return fmt.Sprintf("[%s] %s", graphError.Code, graphError.Message)
	}
	return fmt.Sprintf("[%s] step %s: %s", graphError.Code, graphError.StepID, graphError.Message)
}

// ValidateDefinitionGraph 校验定义图,返回全部错误,合法返回空slice
func ValidateDefinitionGraph(graph *DefinitionGraph) []*GraphError {
	_, graphErrors := NormalizeDefinitionGraph(graph)
	return graphErrors
}

/**
 * NormalizeDefinitionGraph 校验并补全定义图
 * 审批节点允许只画approve/reject其中一条边,另一条在图上有唯一匹配的End时自动补出来:
 * 缺approve边 -> 找status=approved的End,缺reject边 -> 找status=rejected的End,
 * 候选必须恰好一个且不能已经是该节点的出边目标,否则按missing_approval_transition报错
 * 开始节点出边带的触发标签没有意义,这里顺手清空
 * 发布时把补全后的图落库,运行时永远能按(from, trigger)找到边
 * 有任何错误时返回(nil, errors)
 */
func NormalizeDefinitionGraph(graph *DefinitionGraph) (*DefinitionGraph, []*GraphError) {
	if graph == nil {
		graph = &DefinitionGraph{}
	}
	graphErrors := make([]*GraphError, 0, 4)
	appendError := func(code GraphErrorCode, stepID string, format string, args ...any) {
		graphErrors = append(graphErrors, &GraphError{
			Code:    code,
			StepID:  stepID,
			Message: fmt.Sprintf(format, args...),
		})
	}

	// 节点检查: id唯一非空,kind合法,按kind归类
	stepIndex := make(map[string]*StepDef, len(graph.Steps))
	startSteps := make([]*StepDef, 0, 1)
	endSteps := make([]*StepDef, 0, 2)
	approvalSteps := make([]*StepDef, 0, len(graph.Steps))
	for i, step := range graph.Steps {
		if step.ID == "" {
			appendError(GraphErrorCodeInvalidStepID, "", "steps[%d] has empty id", i)
			continue
		}
		if _, exist := stepIndex[step.ID]; exist {
			appendError(GraphErrorCodeDuplicateStepID, step.ID, "step id %s appears more than once", step.ID)
			continue
		}
		stepIndex[step.ID] = step
		switch step.Kind {
		case StepKindStart:
			startSteps = append(startSteps, step)
		case StepKindApproval:
			approvalSteps = append(approvalSteps, step)
		case StepKindEnd:
			endSteps = append(endSteps, step)
		default:
			appendError(GraphErrorCodeInvalidStepKind, step.ID, "unknown step type %q, want start/approval/end", step.Kind)
		}
	}
	if len(startSteps) == 0 {
		appendError(GraphErrorCodeMissingStartStep, "", "definition graph has no start step")
	}
	if len(startSteps) > 1 {
		startIDs := make([]string, 0, len(startSteps))
		for _, step := range startSteps {
			startIDs = append(startIDs, step.ID)
		}
		appendError(GraphErrorCodeMultipleStartSteps, "", "definition graph has %d start steps: %s", len(startSteps), strings.Join(startIDs, ","))
	}
	if len(endSteps) == 0 {
		appendError(GraphErrorCodeMissingEndStep, "", "definition graph has no end step")
	}
	if len(approvalSteps) == 0 {
		appendError(GraphErrorCodeMissingApprovalStep, "", "definition graph has no approval step")
	}
	for _, step := range endSteps {
		if step.Outcome != DecisionApproved && step.Outcome != DecisionRejected {
			appendError(GraphErrorCodeInvalidEndOutcome, step.ID, "end step status %q is not approved/rejected", step.Outcome)
		}
	}

	// 边检查: 两端必须指向存在的节点,坏边不进邻接表
	outgoing := make(map[string][]*TransitionDef, len(stepIndex))
	for i, transition := range graph.Transitions {
		if _, exist := stepIndex[transition.From]; !exist {
			appendError(GraphErrorCodeInvalidTransitionRef, "", "transitions[%d] from %q does not match any step", i, transition.From)
			continue
		}
		if _, exist := stepIndex[transition.To]; !exist {
			appendError(GraphErrorCodeInvalidTransitionRef, transition.From, "transitions[%d] to %q does not match any step", i, transition.To)
			continue
		}
		outgoing[transition.From] = append(outgoing[transition.From], transition)
	}

	for _, step := range startSteps {
		transitions := outgoing[step.ID]
		if len(transitions) != 1 {
			appendError(GraphErrorCodeInvalidStartTransition, step.ID, "start step must have exactly one outgoing transition, got %d", len(transitions))
			continue
		}
		// 开始节点没有分支,出边上的触发标签忽略并清空,运行时固定按(from, "")查这条边
		transitions[0].Trigger = ""
	}
	for _, step := range endSteps {
		if len(outgoing[step.ID]) > 0 {
			appendError(GraphErrorCodeInvalidEndTransition, step.ID, "end step must not have outgoing transitions, got %d", len(outgoing[step.ID]))
		}
	}

	// 审批节点检查+缺边补全
	derivedTransitions := make([]*TransitionDef, 0, 2)
	deriveTransition := func(step *StepDef, trigger Trigger, wantOutcome string) {
		targetIDs := make(map[string]bool, 2)
		for _, transition := range outgoing[step.ID] {
			targetIDs[transition.To] = true
		}
		candidates := make([]*StepDef, 0, 1)
		for _, endStep := range endSteps {
			if endStep.Outcome == wantOutcome && !targetIDs[endStep.ID] {
				candidates = append(candidates, endStep)
			}
		}
		if len(candidates) != 1 {
			appendError(GraphErrorCodeMissingApprovalTransition, step.ID,
				"approval step has no %s transition and %d candidate end steps with status %s", trigger, len(candidates), wantOutcome)
			return
		}
		derived := &TransitionDef{From: step.ID, To: candidates[0].ID, Trigger: trigger}
		derivedTransitions = append(derivedTransitions, derived)
		outgoing[step.ID] = append(outgoing[step.ID], derived)
	}
	for _, step := range approvalSteps {
		approveCount, rejectCount := 0, 0
		for _, transition := range outgoing[step.ID] {
			switch transition.Trigger {
			case TriggerApprove:
				approveCount++
			case TriggerReject:
				rejectCount++
			default:
				appendError(GraphErrorCodeInvalidTransitionTrigger, step.ID, "approval transition trigger %q is not approve/reject", transition.Trigger)
			}
		}
		if approveCount > 1 {
			appendError(GraphErrorCodeDuplicateTransitionTrigger, step.ID, "approval step has %d approve transitions", approveCount)
		}
		if rejectCount > 1 {
			appendError(GraphErrorCodeDuplicateTransitionTrigger, step.ID, "approval step has %d reject transitions", rejectCount)
		}
		if approveCount == 0 && rejectCount == 0 {
			appendError(GraphErrorCodeMissingApprovalTransition, step.ID, "approval step has neither approve nor reject transition")
			continue
		}
		if approveCount == 0 {
			deriveTransition(step, TriggerApprove, DecisionApproved)
		}
		if rejectCount == 0 {
			deriveTransition(step, TriggerReject, DecisionRejected)
		}
	}

	// 可达性: 从start出发BFS,孤岛节点逐个报
	if len(startSteps) == 1 {
		reached := make(map[string]bool, len(stepIndex))
		queue := []string{startSteps[0].ID}
		reached[startSteps[0].ID] = true
		for len(queue) > 0 {
			currentID := queue[0]
			queue = queue[1:]
			for _, transition := range outgoing[currentID] {
				if !reached[transition.To] {
					reached[transition.To] = true
					queue = append(queue, transition.To)
				}
			}
		}
		for _, step := range graph.Steps {
			if step.ID == "" {
				continue
			}
			if stepIndex[step.ID] != step {
				// 重复id只查第一个
				continue
			}
			if !reached[step.ID] {
				appendError(GraphErrorCodeOrphanedStep, step.ID, "step is not reachable from start")
			}
		}
	}

	// 环检测: 三色DFS,发现第一条回边就停
	const (
		colorWhite = 0
		colorGray  = 1
		colorBlack = 2
	)
	colors := make(map[string]int, len(stepIndex))
	cycleFound := false
	var visit func(stepID string)
	visit = func(stepID string) {
		if cycleFound {
			return
		}
		colors[stepID] = colorGray
		for _, transition := range outgoing[stepID] {
			switch colors[transition.To] {
			case colorWhite:
				visit(transition.To)
			case colorGray:
				if !cycleFound {
					cycleFound = true
					appendError(GraphErrorCodeCycleDetected, transition.From, "transition to %s closes a cycle", transition.To)
				}
			}
			if cycleFound {
				return
			}
		}
		colors[stepID] = colorBlack
	}
	for _, step := range graph.Steps {
		if stepIndex[step.ID] != step {
			continue
		}
		if colors[step.ID] == colorWhite {
			visit(step.ID)
		}
	}

	// 表单schema检查
	if graph.Form != nil {
		fieldIDs := make(map[string]bool, len(graph.Form.Fields))
		for i, field := range graph.Form.Fields {
			if field.ID == "" {
				appendError(GraphErrorCodeInvalidFormField, "", "form fields[%d] has empty id", i)
				continue
			}
			if fieldIDs[field.ID] {
				appendError(GraphErrorCodeInvalidFormField, "", "form field id %s appears more than once", field.ID)
				continue
			}
			fieldIDs[field.ID] = true
			if field.Label == "" {
				appendError(GraphErrorCodeInvalidFormField, "", "form field %s has empty label", field.ID)
			}
			if !formFieldTypes[field.Type] {
				appendError(GraphErrorCodeInvalidFormField, "", "form field %s has unknown type %q", field.ID, field.Type)
			}
			if field.Type == "select" && len(field.Options) == 0 {
				appendError(GraphErrorCodeInvalidFormField, "", "form field %s is select but has no options", field.ID)
			}
		}
	}

	if len(graphErrors) > 0 {
		return nil, graphErrors
	}
	normalized := &DefinitionGraph{
		Steps:       graph.Steps,
		Transitions: make([]*TransitionDef, 0, len(graph.Transitions)+len(derivedTransitions)),
		Form:        graph.Form,
	}
	normalized.Transitions = append(normalized.Transitions, graph.Transitions...)
	normalized.Transitions = append(normalized.Transitions, derivedTransitions...)
	return normalized, nil
}
