package ringi

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// StepKind 定义图里节点的类型
type StepKind = string

const (
	StepKindStart    StepKind = "start"
	StepKindApproval StepKind = "approval"
	StepKindEnd      StepKind = "end"
)

/**
 * StepDef 定义图中的一个节点
 * start: 入口,整个图有且只有一个,一条无标签出边
 * approval: 审批点,出边用trigger区分approve/reject分支
 * end: 终点,Outcome(json里沿用status字段)决定实例的终态
 */
type StepDef struct {
	ID      string   `json:"id"`
	Kind    StepKind `json:"type"`
	Name    string   `json:"name"`
	Outcome string   `json:"status,omitempty"`
}

/**
 * TransitionDef 节点之间的有向边
 * Trigger只在From是approval节点时有意义,start出边留空
 */
type TransitionDef struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Trigger Trigger `json:"trigger,omitempty"`
}

// FormFieldDef 表单字段定义,提交时候实例的form_data按这个schema填
type FormFieldDef struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Label    string   `json:"label"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// FormSchema 定义附带的表单schema,可选
type FormSchema struct {
	Fields []*FormFieldDef `json:"fields"`
}

/**
 * DefinitionGraph 审批流定义的图结构,定义表graph列存的就是它的json
 * 发布之后不可变,运行时只读
 */
type DefinitionGraph struct {
	Steps       []*StepDef       `json:"steps"`
	Transitions []*TransitionDef `json:"transitions"`
	Form        *FormSchema      `json:"form,omitempty"`
}

// ParseDefinitionGraph 从json反序列化定义图,只管格式不管图本身合不合法
// 图的合法性走ValidateDefinitionGraph
func ParseDefinitionGraph(data []byte) (*DefinitionGraph, error) {
	if len(data) == 0 {
		return nil, errors.WithMessage(ErrRingiParamInvalid, "definition graph is empty")
	}
	graph := &DefinitionGraph{}
	err := json.Unmarshal(data, graph)
	if err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "definition graph is not valid json,err: %v", err)
	}
	return graph, nil
}

// ToBytes 序列化定义图
func (graph *DefinitionGraph) ToBytes() ([]byte, error) {
	data, err := json.Marshal(graph)
	if err != nil {
		return nil, errors.Wrap(err, "marshal definition graph failed")
	}
	return data, nil
}

// StepByID 按节点id查找,找不到返回nil
func (graph *DefinitionGraph) StepByID(stepID string) *StepDef {
	for _, step := range graph.Steps {
		if step.ID == stepID {
			return step
		}
	}
	return nil
}

// StartStep 入口节点,合法的图有且只有一个
func (graph *DefinitionGraph) StartStep() *StepDef {
	for _, step := range graph.Steps {
		if step.Kind == StepKindStart {
			return step
		}
	}
	return nil
}

// ApprovalSteps 全部审批节点,保持定义里的顺序
func (graph *DefinitionGraph) ApprovalSteps() []*StepDef {
	approvalSteps := make([]*StepDef, 0, len(graph.Steps))
	for _, step := range graph.Steps {
		if step.Kind == StepKindApproval {
			approvalSteps = append(approvalSteps, step)
		}
	}
	return approvalSteps
}

// OutgoingTransitions from节点的全部出边,保持定义里的顺序
func (graph *DefinitionGraph) OutgoingTransitions(fromID string) []*TransitionDef {
	transitions := make([]*TransitionDef, 0, 2)
	for _, transition := range graph.Transitions {
		if transition.From == fromID {
			transitions = append(transitions, transition)
		}
	}
	return transitions
}

/**
 * FindTransition 按(from, trigger)找边,流转的唯一寻路方式
 * start节点出边trigger传空串
 */
func (graph *DefinitionGraph) FindTransition(fromID string, trigger Trigger) *TransitionDef {
	for _, transition := range graph.Transitions {
		if transition.From == fromID && transition.Trigger == trigger {
			return transition
		}
	}
	return nil
}
