package ringi

import "context"

type RingiService interface {
	/**
	 * @description: 创建审批流定义,初始为draft状态,version=1
	 * @param ctx context.Context
	 * @param req *CreateDefinitionReq
	 * @return *Definition, error
	 */
	CreateDefinition(ctx context.Context, req *CreateDefinitionReq) (*Definition, error)
	/**
	 * @description: 修改定义,只有draft可以改,期望版本对不上返回ErrVersionConflict
	 * @param ctx context.Context
	 * @param req *UpdateDefinitionReq
	 * @return *Definition, error
	 */
	UpdateDefinition(ctx context.Context, req *UpdateDefinitionReq) (*Definition, error)
	/**
	 * @description: 发布定义,draft -> published
	 *				 发布前整图校验,有任何错误返回ErrGraphInvalid,错误明细在返回错误的message里
	 *				 落库的是补全过缺省边的图,发布之后定义不可再改
	 * @param ctx context.Context
	 * @param req *PublishDefinitionReq
	 * @return *Definition, error
	 */
	PublishDefinition(ctx context.Context, req *PublishDefinitionReq) (*Definition, error)
	/**
	 * @description: 归档定义,published -> archived,归档后不能再创建新实例
	 *				 跑着的实例不受影响,继续走完
	 * @param ctx context.Context
	 * @param req *ArchiveDefinitionReq
	 * @return *Definition, error
	 */
	ArchiveDefinition(ctx context.Context, req *ArchiveDefinitionReq) (*Definition, error)
	/**
	 * @description: 删除定义,只有draft可以删
	 * @param ctx context.Context
	 * @param req *DeleteDefinitionReq
	 * @return error
	 */
	DeleteDefinition(ctx context.Context, req *DeleteDefinitionReq) error
	/**
	 * @description: 校验定义图,返回全部错误,不落库不改状态
	 *				 图合法时返回空slice,error只在参数/基础设施出问题时非空
	 * @param ctx context.Context
	 * @param req *ValidateDefinitionReq
	 * @return []*GraphError, error
	 */
	ValidateDefinition(ctx context.Context, req *ValidateDefinitionReq) ([]*GraphError, error)
	QueryDefinitionPo(ctx context.Context, params *QueryRingiDefinitionParams) ([]*RingiDefinitionPo, error)

	/**
	 * @description: 创建审批实例,挂在一个published定义下,初始为draft状态
	 *				 这里就会分配展示编号(WF-n),表单数据可以先填一部分,提交前随便改
	 * @param ctx context.Context
	 * @param req *CreateInstanceReq
	 * @return *Instance, error
	 */
	CreateInstance(ctx context.Context, req *CreateInstanceReq) (*Instance, error)
	/**
	 * @description: 提交实例,draft -> in_progress,激活第一个审批步骤
	 *				 一个实例同一时刻只有一个goroutine能操作,抢不到锁返回LockFailedError
	 *				 req.ExpectedVersion对不上当前版本返回ErrVersionConflict
	 *				 被差回(draft)的实例可以带新表单数据重新提交,历史步骤保留
	 * @param ctx context.Context
	 * @param req *SubmitInstanceReq
	 * @return *Instance, error
	 */
	SubmitInstance(ctx context.Context, req *SubmitInstanceReq) (*Instance, error)
	/**
	 * @description: 审批当前步骤,decision为approved走approve边,rejected走reject边
	 *				 到达下一个审批节点就开新步骤,到达end节点实例以end的结果收尾
	 *				 乐观锁锁的是步骤版本(req.ExpectedStepVersion),对不上返回ErrVersionConflict
	 *				 只有active步骤可以审,重复审同一个步骤返回ErrStateViolation
	 * @param ctx context.Context
	 * @param req *DecideReq
	 * @return *Instance, error
	 */
	Decide(ctx context.Context, req *DecideReq) (*Instance, error)
	/**
	 * @description: 差回,把实例退回draft让申请人改了重交
	 *				 当前active步骤标记为skipped,不算审批完成,历史保留
	 * @param ctx context.Context
	 * @param req *RequestChangesReq
	 * @return *Instance, error
	 */
	RequestChanges(ctx context.Context, req *RequestChangesReq) (*Instance, error)
	/**
	 * @description: 取消实例,draft/in_progress都可以取消,终态实例不能取消
	 *				 in_progress取消时当前active步骤标记为skipped
	 * @param ctx context.Context
	 * @param req *CancelInstanceReq
	 * @return *Instance, error
	 */
	CancelInstance(ctx context.Context, req *CancelInstanceReq) (*Instance, error)
	/**
	 * @description: 查询实例详情,实例+按编号排好序的全部步骤+定义名称
	 * @param ctx context.Context
	 * @param params *QueryRingiInstanceParams
	 * @return []*InstanceDetailEntity, error
	 */
	QueryInstanceDetail(ctx context.Context, params *QueryRingiInstanceParams) ([]*InstanceDetailEntity, error)
	QueryInstancePo(ctx context.Context, params *QueryRingiInstanceParams) ([]*RingiInstancePo, error)
	CountInstance(ctx context.Context, params *QueryRingiInstanceParams) (int64, error)
}

// RingiServiceImpl 审批流服务
type RingiServiceImpl struct {
	repo        RingiRepo
	executeLock RingiLock
}

func NewRingiService(repo RingiRepo, executeLock RingiLock) RingiService {
	return &RingiServiceImpl{repo: repo, executeLock: executeLock}
}
