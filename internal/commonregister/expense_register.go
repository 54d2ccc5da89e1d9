package commonregister

import (
	"context"
	"fmt"

	"github.com/blingmoon/ringi-flow/ringi"
	"github.com/pkg/errors"
)

// ExpenseDefinitionName 内置报销审批流的定义名称
const ExpenseDefinitionName = "员工报销"

// 流程结构: 发起 -> 经理审批 -> 财务审批 -> 通过/否决
// 表单带事由、金额、类别三个字段
const expenseGraphJson = `{
	"steps": [
		{"id": "start", "type": "start", "name": "发起报销"},
		{"id": "manager", "type": "approval", "name": "经理审批"},
		{"id": "finance", "type": "approval", "name": "财务审批"},
		{"id": "approved_end", "type": "end", "name": "报销通过", "status": "approved"},
		{"id": "rejected_end", "type": "end", "name": "报销否决", "status": "rejected"}
	],
	"transitions": [
		{"from": "start", "to": "manager"},
		{"from": "manager", "to": "finance", "trigger": "approve"},
		{"from": "manager", "to": "rejected_end", "trigger": "reject"},
		{"from": "finance", "to": "approved_end", "trigger": "approve"},
		{"from": "finance", "to": "rejected_end", "trigger": "reject"}
	],
	"form": {
		"fields": [
			{"id": "title", "type": "text", "label": "事由", "required": true},
			{"id": "amount", "type": "number", "label": "金额", "required": true},
			{"id": "category", "type": "select", "label": "类别", "options": ["差旅", "办公", "招待"]}
		]
	}
}`

/**
 * RegisterExpenseApprovalDefinition 给租户注册一套标准的两级报销审批定义
 * 可以重复调用: 租户下已经有同名的published定义时直接复用
 * 返回定义id,拿去创建实例
 */
func RegisterExpenseApprovalDefinition(ctx context.Context, service ringi.RingiService, tenantID string) (string, error) {
	// 1. 已经注册过就直接用
	definitionPos, err := service.QueryDefinitionPo(ctx, &ringi.QueryRingiDefinitionParams{
		TenantID: ringi.String(tenantID),
		StatusIn: []string{ringi.DefinitionStatusPublished},
		Page:     &ringi.Pager{IsNoLimit: ringi.Bool(true)},
	})
	if err != nil {
		return "", errors.WithMessagef(err, "query published definitions failed, tenantID: %s", tenantID)
	}
	for _, definitionPo := range definitionPos {
		if definitionPo.Name == ExpenseDefinitionName {
			return definitionPo.ID, nil
		}
	}

	// 2. 解析并校验内置的定义图
	graph, err := ringi.ParseDefinitionGraph([]byte(expenseGraphJson))
	if err != nil {
		return "", errors.WithMessage(err, "parse expense graph failed")
	}
	graphErrors, err := service.ValidateDefinition(ctx, &ringi.ValidateDefinitionReq{Graph: graph})
	if err != nil {
		return "", errors.WithMessage(err, "validate expense graph failed")
	}
	if len(graphErrors) > 0 {
		return "", errors.Errorf("expense graph is broken: %s", ringi.JoinGraphErrors(graphErrors))
	}

	// 3. 建草稿再发布
	definition, err := service.CreateDefinition(ctx, &ringi.CreateDefinitionReq{
		TenantID:    tenantID,
		Name:        ExpenseDefinitionName,
		Description: "内置的两级报销审批流程",
		Graph:       graph,
		CreatedBy:   "system",
	})
	if err != nil {
		return "", errors.WithMessagef(err, "create expense definition failed, tenantID: %s", tenantID)
	}
	published, err := service.PublishDefinition(ctx, &ringi.PublishDefinitionReq{
		DefinitionID:    definition.ID,
		TenantID:        tenantID,
		ExpectedVersion: definition.Version,
	})
	if err != nil {
		return "", errors.WithMessagef(err, "publish expense definition failed, definitionID: %s", definition.ID)
	}
	fmt.Printf("  [注册] 报销审批定义已发布 ✓ (id: %s)\n", published.ID)
	return published.ID, nil
}
