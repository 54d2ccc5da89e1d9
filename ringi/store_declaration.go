package ringi

import (
	"context"
)

type RingiRepo interface {
	CreateDefinition(ctx context.Context, definition *RingiDefinitionPo) (*RingiDefinitionPo, error)
	QueryDefinition(ctx context.Context, param *QueryRingiDefinitionParams) ([]*RingiDefinitionPo, error)
	CountDefinition(ctx context.Context, param *QueryRingiDefinitionParams) (int64, error)
	// UpdateDefinition 返回实际更新的行数,Where里带上Version就是乐观锁写,0行说明版本已经变了
	UpdateDefinition(ctx context.Context, param *UpdateRingiDefinitionParams) (int64, error)
	DeleteDefinition(ctx context.Context, param *DeleteRingiDefinitionParams) (int64, error)
	CreateInstance(ctx context.Context, instance *RingiInstancePo) (*RingiInstancePo, error)
	QueryInstance(ctx context.Context, param *QueryRingiInstanceParams) ([]*RingiInstancePo, error)
	CountInstance(ctx context.Context, param *QueryRingiInstanceParams) (int64, error)
	UpdateInstance(ctx context.Context, param *UpdateRingiInstanceParams) (int64, error)
	CreateStep(ctx context.Context, step *RingiStepPo) (*RingiStepPo, error)
	QueryStep(ctx context.Context, param *QueryRingiStepParams) ([]*RingiStepPo, error)
	UpdateStep(ctx context.Context, param *UpdateRingiStepParams) (int64, error)
	// NextSequence 取(tenant_id, entityType)维度的下一个连续编号,第一次调用返回1
	// 计数器行不存在会补一行从0开始,竞争失败返回LockFailedError,调用方重试即可
	NextSequence(ctx context.Context, tenantID string, entityType SequenceEntityType) (int64, error)
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
