package ringi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// 辅助函数：替代 String / Bool / Int32 / Int64
func String(s string) *string { return &s }
func Bool(b bool) *bool       { return &b }
func Int32(i int32) *int32    { return &i }
func Int64(i int64) *int64    { return &i }

// Definition 审批流定义entity
type Definition struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	Version     int32
	Status      DefinitionStatus
	Graph       *DefinitionGraph
	CreatedBy   string
	CreatedAt   int64
	UpdatedAt   int64
}

// Instance 审批实例entity
type Instance struct {
	ID                string
	TenantID          string
	DefinitionID      string
	DefinitionVersion int32
	DisplayNumber     int64
	DisplayID         string // WF-n
	Status            InstanceStatus
	CurrentStepID     string
	FormData          *FormData
	Approvers         map[string]string // 定义节点id -> 审批人
	Version           int32
	CreatedBy         string
	CompletedAt       int64
	CreatedAt         int64
	UpdatedAt         int64
}

// Step 审批步骤entity
type Step struct {
	ID            string
	TenantID      string
	InstanceID    string
	DefStepID     string
	Name          string
	DisplayNumber int64
	DisplayID     string // STEP-n
	Status        StepStatus
	Decision      string
	Comment       string
	AssignedTo    string
	Version       int32
	StartedAt     int64
	CompletedAt   int64
	CreatedAt     int64
	UpdatedAt     int64
}

// InstanceDetailEntity 实例详情,实例+定义名称+按编号排序的全部步骤
type InstanceDetailEntity struct {
	Instance       *Instance
	DefinitionName string
	Steps          []*Step
}

func newDefinitionEntity(definitionPo *RingiDefinitionPo) (*Definition, error) {
	graph, err := ParseDefinitionGraph(definitionPo.Graph)
	if err != nil {
		return nil, errors.WithMessagef(err, "parse definition graph failed, definitionID: %s", definitionPo.ID)
	}
	return &Definition{
		ID:          definitionPo.ID,
		TenantID:    definitionPo.TenantID,
		Name:        definitionPo.Name,
		Description: definitionPo.Description,
		Version:     definitionPo.Version,
		Status:      definitionPo.Status,
		Graph:       graph,
		CreatedBy:   definitionPo.CreatedBy,
		CreatedAt:   definitionPo.CreatedAt,
		UpdatedAt:   definitionPo.UpdatedAt,
	}, nil
}

func newInstanceEntity(instancePo *RingiInstancePo) (*Instance, error) {
	formData, err := NewFormDataFromBytes(instancePo.FormData)
	if err != nil {
		return nil, errors.WithMessagef(err, "parse instance form data failed, instanceID: %s", instancePo.ID)
	}
	approvers := make(map[string]string)
	if len(instancePo.Approvers) > 0 {
		if err := json.Unmarshal(instancePo.Approvers, &approvers); err != nil {
			return nil, errors.Wrapf(err, "parse instance approvers failed, instanceID: %s", instancePo.ID)
		}
	}
	return &Instance{
		ID:                instancePo.ID,
		TenantID:          instancePo.TenantID,
		DefinitionID:      instancePo.DefinitionID,
		DefinitionVersion: instancePo.DefinitionVersion,
		DisplayNumber:     instancePo.DisplayNumber,
		DisplayID:         FormatDisplayID(SequenceEntityTypeInstance, instancePo.DisplayNumber),
		Status:            instancePo.Status,
		CurrentStepID:     instancePo.CurrentStepID,
		FormData:          formData,
		Approvers:         approvers,
		Version:           instancePo.Version,
		CreatedBy:         instancePo.CreatedBy,
		CompletedAt:       instancePo.CompletedAt,
		CreatedAt:         instancePo.CreatedAt,
		UpdatedAt:         instancePo.UpdatedAt,
	}, nil
}

func newStepEntity(stepPo *RingiStepPo) *Step {
	return &Step{
		ID:            stepPo.ID,
		TenantID:      stepPo.TenantID,
		InstanceID:    stepPo.InstanceID,
		DefStepID:     stepPo.DefStepID,
		Name:          stepPo.Name,
		DisplayNumber: stepPo.DisplayNumber,
		DisplayID:     FormatDisplayID(SequenceEntityTypeStep, stepPo.DisplayNumber),
		Status:        stepPo.Status,
		Decision:      stepPo.Decision,
		Comment:       stepPo.Comment,
		AssignedTo:    stepPo.AssignedTo,
		Version:       stepPo.Version,
		StartedAt:     stepPo.StartedAt,
		CompletedAt:   stepPo.CompletedAt,
		CreatedAt:     stepPo.CreatedAt,
		UpdatedAt:     stepPo.UpdatedAt,
	}
}

type CreateDefinitionReq struct {
	TenantID    string           `json:"tenant_id" validate:"required"`
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Graph       *DefinitionGraph `json:"graph" validate:"required"`
	CreatedBy   string           `json:"created_by"`
}

type UpdateDefinitionReq struct {
	DefinitionID string `json:"definition_id" validate:"required"`
	TenantID     string `json:"tenant_id" validate:"required"`
	// ExpectedVersion 乐观锁,和当前版本对不上返回ErrVersionConflict
	ExpectedVersion int32            `json:"expected_version" validate:"gt=0"`
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Graph           *DefinitionGraph `json:"graph"`
}

type PublishDefinitionReq struct {
	DefinitionID    string `json:"definition_id" validate:"required"`
	TenantID        string `json:"tenant_id" validate:"required"`
	ExpectedVersion int32  `json:"expected_version" validate:"gt=0"`
}

type ArchiveDefinitionReq struct {
	DefinitionID    string `json:"definition_id" validate:"required"`
	TenantID        string `json:"tenant_id" validate:"required"`
	ExpectedVersion int32  `json:"expected_version" validate:"gt=0"`
}

type DeleteDefinitionReq struct {
	DefinitionID string `json:"definition_id" validate:"required"`
	TenantID     string `json:"tenant_id" validate:"required"`
}

type ValidateDefinitionReq struct {
	Graph *DefinitionGraph `json:"graph" validate:"required"`
}

type CreateInstanceReq struct {
	TenantID     string         `json:"tenant_id" validate:"required"`
	DefinitionID string         `json:"definition_id" validate:"required"`
	FormData     map[string]any `json:"form_data"` // 可以为空,提交前可以随时改
	CreatedBy    string         `json:"created_by"`
}

// StepApprover 提交时给审批节点指定审批人
type StepApprover struct {
	DefStepID  string `json:"def_step_id" validate:"required"`
	AssignedTo string `json:"assigned_to" validate:"required"`
}

type SubmitInstanceReq struct {
	InstanceID      string `json:"instance_id" validate:"required"`
	TenantID        string `json:"tenant_id" validate:"required"`
	ExpectedVersion int32  `json:"expected_version" validate:"gt=0"`
	// FormData 不为nil时整体替换实例上的表单数据,差回重交时带新数据用
	FormData map[string]any `json:"form_data"`
	// Approvers 可选,传了就必须恰好覆盖定义里全部审批节点,不多不少
	Approvers []*StepApprover `json:"approvers" validate:"omitempty,dive,required"`
}

type DecideReq struct {
	InstanceID string `json:"instance_id" validate:"required"`
	StepID     string `json:"step_id" validate:"required"`
	TenantID   string `json:"tenant_id" validate:"required"`
	Decision   string `json:"decision" validate:"required,oneof=approved rejected"`
	// ExpectedStepVersion 乐观锁锁的是步骤版本,不是实例版本
	ExpectedStepVersion int32  `json:"expected_step_version" validate:"gt=0"`
	Comment             string `json:"comment"`
	DecidedBy           string `json:"decided_by"`
}

type RequestChangesReq struct {
	InstanceID          string `json:"instance_id" validate:"required"`
	StepID              string `json:"step_id" validate:"required"`
	TenantID            string `json:"tenant_id" validate:"required"`
	ExpectedStepVersion int32  `json:"expected_step_version" validate:"gt=0"`
	Comment             string `json:"comment"`
	RequestedBy         string `json:"requested_by"`
}

type CancelInstanceReq struct {
	InstanceID      string `json:"instance_id" validate:"required"`
	TenantID        string `json:"tenant_id" validate:"required"`
	ExpectedVersion int32  `json:"expected_version" validate:"gt=0"`
	CancelledBy     string `json:"cancelled_by"`
}

func (s *RingiServiceImpl) CreateDefinition(ctx context.Context, req *CreateDefinitionReq) (*Definition, error) {
	if err := validatorUtil.Struct(req); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "CreateDefinition failed, req: %v,err: %v", req, err)
	}
	graphBytes, err := req.Graph.ToBytes()
	if err != nil {
		return nil, errors.WithMessagef(err, "CreateDefinition failed, tenantID: %s", req.TenantID)
	}
	definitionPo, err := s.repo.CreateDefinition(ctx, &RingiDefinitionPo{
		ID:          uuid.NewString(),
		TenantID:    req.TenantID,
		Name:        req.Name,
		Description: req.Description,
		Version:     1,
		Status:      DefinitionStatusDraft,
		Graph:       graphBytes,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "CreateDefinition failed, tenantID: %s, name: %s", req.TenantID, req.Name)
	}
	return newDefinitionEntity(definitionPo)
}

func (s *RingiServiceImpl) UpdateDefinition(ctx context.Context, req *UpdateDefinitionReq) (*Definition, error) {
	if err := validatorUtil.Struct(req); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "UpdateDefinition failed, req: %v,err: %v", req, err)
	}
	if req.Name == nil && req.Description == nil && req.Graph == nil {
		return nil, errors.WithMessage(ErrRingiParamInvalid, "UpdateDefinition need at least one field to update")
	}
	definitionPo, err := s.getDefinitionPo(ctx, req.DefinitionID, req.TenantID)
	if err != nil {
		return nil, errors.WithMessagef(err, "UpdateDefinition failed, definitionID: %s", req.DefinitionID)
	}
	if definitionPo.Status != DefinitionStatusDraft {
		return nil, errors.Wrapf(ErrStateViolation, "only draft definition can be updated, definitionID: %s, status: %s", req.DefinitionID, definitionPo.Status)
	}
	if definitionPo.Version != req.ExpectedVersion {
		return nil, errors.Wrapf(ErrVersionConflict, "definition version mismatch, definitionID: %s, expected: %d, current: %d", req.DefinitionID, req.ExpectedVersion, definitionPo.Version)
	}
	fields := &UpdateRingiDefinitionField{
		Name:        req.Name,
		Description: req.Description,
		Version:     Int32(req.ExpectedVersion + 1),
	}
	if req.Graph != nil {
		graphBytes, err := req.Graph.ToBytes()
		if err != nil {
			return nil, errors.WithMessagef(err, "UpdateDefinition failed, definitionID: %s", req.DefinitionID)
		}
		fields.Graph = graphBytes
	}
	rowsAffected, err := s.repo.UpdateDefinition(ctx, &UpdateRingiDefinitionParams{
		Where: &UpdateRingiDefinitionWhere{
			IDIn:     []string{req.DefinitionID},
			TenantID: String(req.TenantID),
			StatusIn: []string{DefinitionStatusDraft},
			Version:  Int32(req.ExpectedVersion),
		},
		Fields:   fields,
		LimitMax: 1,
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "UpdateDefinition failed, definitionID: %s", req.DefinitionID)
	}
	if rowsAffected == 0 {
		// 前面刚检查过版本,走到这里说明有并发修改
		return nil, errors.Wrapf(ErrVersionConflict, "definition changed concurrently, definitionID: %s, expected version: %d", req.DefinitionID, req.ExpectedVersion)
	}
	return s.getDefinitionEntity(ctx, req.DefinitionID, req.TenantID)
}

func (s *RingiServiceImpl) PublishDefinition(ctx context.Context, req *PublishDefinitionReq) (*Definition, error) {
	if err := validatorUtil.Struct(req); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "PublishDefinition failed, req: %v,err: %v", req, err)
	}
	definitionPo, err := s.getDefinitionPo(ctx, req.DefinitionID, req.TenantID)
	if err != nil {
		return nil, errors.WithMessagef(err, "PublishDefinition failed, definitionID: %s", req.DefinitionID)
	}
	if definitionPo.Status != DefinitionStatusDraft {
		return nil, errors.Wrapf(ErrStateViolation, "only draft definition can be published, definitionID: %s, status: %s", req.DefinitionID, definitionPo.Status)
	}
	if definitionPo.Version != req.ExpectedVersion {
		return nil, errors.Wrapf(ErrVersionConflict, "definition version mismatch, definitionID: %s, expected: %d, current: %d", req.DefinitionID, req.ExpectedVersion, definitionPo.Version)
	}
	graph, err := ParseDefinitionGraph(definitionPo.Graph)
	if err != nil {
		return nil, errors.WithMessagef(err, "PublishDefinition failed, definitionID: %s", req.DefinitionID)
	}
	normalized, graphErrors := NormalizeDefinitionGraph(graph)
	if len(graphErrors) > 0 {
		return nil, errors.Wrapf(ErrGraphInvalid, "PublishDefinition failed, definitionID: %s, graph errors: %s", req.DefinitionID, JoinGraphErrors(graphErrors))
	}
	// 落库的是补全过的图,运行时按(from, trigger)找边永远找得到
	normalizedBytes, err := normalized.ToBytes()
	if err != nil {
		return nil, errors.WithMessagef(err, "PublishDefinition failed, definitionID: %s", req.DefinitionID)
	}
	rowsAffected, err := s.repo.UpdateDefinition(ctx, &UpdateRingiDefinitionParams{
		Where: &UpdateRingiDefinitionWhere{
			IDIn:     []string{req.DefinitionID},
			TenantID: String(req.TenantID),
			StatusIn: []string{DefinitionStatusDraft},
			Version:  Int32(req.ExpectedVersion),
		},
		Fields: &UpdateRingiDefinitionField{
			Status:  String(DefinitionStatusPublished),
			Graph:   normalizedBytes,
			Version: Int32(req.ExpectedVersion + 1),
		},
		LimitMax: 1,
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "PublishDefinition failed, definitionID: %s", req.DefinitionID)
	}
	if rowsAffected == 0 {
		return nil, errors.Wrapf(ErrVersionConflict, "definition changed concurrently, definitionID: %s, expected version: %d", req.DefinitionID, req.ExpectedVersion)
	}
	return s.getDefinitionEntity(ctx, req.DefinitionID, req.TenantID)
}

func (s *RingiServiceImpl) ArchiveDefinition(ctx context.Context, req *ArchiveDefinitionReq) (*Definition, error) {
	if err := validatorUtil.Struct(req); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "ArchiveDefinition failed, req: %v,err: %v", req, err)
	}
	definitionPo, err := s.getDefinitionPo(ctx, req.DefinitionID, req.TenantID)
	if err != nil {
		return nil, errors.WithMessagef(err, "ArchiveDefinition failed, definitionID: %s", req.DefinitionID)
	}
	if definitionPo.Status != DefinitionStatusPublished {
		return nil, errors.Wrapf(ErrStateViolation, "only published definition can be archived, definitionID: %s, status: %s", req.DefinitionID, definitionPo.Status)
	}
	if definitionPo.Version != req.ExpectedVersion {
		return nil, errors.Wrapf(ErrVersionConflict, "definition version mismatch, definitionID: %s, expected: %d, current: %d", req.DefinitionID, req.ExpectedVersion, definitionPo.Version)
	}
	rowsAffected, err := s.repo.UpdateDefinition(ctx, &UpdateRingiDefinitionParams{
		Where: &UpdateRingiDefinitionWhere{
			IDIn:     []string{req.DefinitionID},
			TenantID: String(req.TenantID),
			StatusIn: []string{DefinitionStatusPublished},
			Version:  Int32(req.ExpectedVersion),
		},
		Fields: &UpdateRingiDefinitionField{
			Status:  String(DefinitionStatusArchived),
			Version: Int32(req.ExpectedVersion + 1),
		},
		LimitMax: 1,
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "ArchiveDefinition failed, definitionID: %s", req.DefinitionID)
	}
	if rowsAffected == 0 {
		return nil, errors.Wrapf(ErrVersionConflict, "definition changed concurrently, definitionID: %s, expected version: %d", req.DefinitionID, req.ExpectedVersion)
	}
	return s.getDefinitionEntity(ctx, req.DefinitionID, req.TenantID)
}

func (s *RingiServiceImpl) DeleteDefinition(ctx context.Context, req *DeleteDefinitionReq) error {
	if err := validatorUtil.Struct(req); err != nil {
		return errors.Wrapf(ErrRingiParamInvalid, "DeleteDefinition failed, req: %v,err: %v", req, err)
	}
	definitionPo, err := s.getDefinitionPo(ctx, req.DefinitionID, req.TenantID)
	if err != nil {
		return errors.WithMessagef(err, "DeleteDefinition failed, definitionID: %s", req.DefinitionID)
	}
	if definitionPo.Status != DefinitionStatusDraft {
		return errors.Wrapf(ErrStateViolation, "only draft definition can be deleted, definitionID: %s, status: %s", req.DefinitionID, definitionPo.Status)
	}
	rowsAffected, err := s.repo.DeleteDefinition(ctx, &DeleteRingiDefinitionParams{
		DefinitionID: req.DefinitionID,
		TenantID:     req.TenantID,
		StatusIn:     []string{DefinitionStatusDraft},
	})
	if err != nil {
		return errors.WithMessagef(err, "DeleteDefinition failed, definitionID: %s", req.DefinitionID)
	}
	if rowsAffected == 0 {
		return errors.Wrapf(ErrStateViolation, "definition changed concurrently, definitionID: %s", req.DefinitionID)
	}
	return nil
}

func (s *RingiServiceImpl) ValidateDefinition(ctx context.Context, req *ValidateDefinitionReq) ([]*GraphError, error) {
	if err := validatorUtil.Struct(req); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "ValidateDefinition failed, req: %v,err: %v", req, err)
	}
	return ValidateDefinitionGraph(req.Graph), nil
}

func (s *RingiServiceImpl) QueryDefinitionPo(ctx context.Context, params *QueryRingiDefinitionParams) ([]*RingiDefinitionPo, error) {
	if err := validatorUtil.Struct(params); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "QueryDefinitionPo failed, params: %v,err: %v", params, err)
	}
	definitionPos, err := s.repo.QueryDefinition(ctx, params)
	if err != nil {
		return nil, errors.WithMessagef(err, "QueryDefinitionPo failed, params: %v", params)
	}
	return definitionPos, nil
}

func (s *RingiServiceImpl) CountInstance(ctx context.Context, params *QueryRingiInstanceParams) (int64, error) {
	if err := validatorUtil.Struct(params); err != nil {
		return 0, errors.Wrapf(ErrRingiParamInvalid, "CountInstance failed, params: %v,err: %v", params, err)
	}
	count, err := s.repo.CountInstance(ctx, params)
	if err != nil {
		return 0, errors.WithMessagef(err, "CountInstance failed, params: %v", params)
	}
	return count, nil
}

func (s *RingiServiceImpl) QueryInstancePo(ctx context.Context, params *QueryRingiInstanceParams) ([]*RingiInstancePo, error) {
	if err := validatorUtil.Struct(params); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "QueryInstancePo failed, params: %v,err: %v", params, err)
	}
	instancePos, err := s.repo.QueryInstance(ctx, params)
	if err != nil {
		return nil, errors.WithMessagef(err, "QueryInstancePo failed, params: %v", params)
	}
	return instancePos, nil
}

func (s *RingiServiceImpl) QueryInstanceDetail(ctx context.Context, params *QueryRingiInstanceParams) ([]*InstanceDetailEntity, error) {
	if err := validatorUtil.Struct(params); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "QueryInstanceDetail failed, params: %v,err: %v", params, err)
	}
	instancePos, err := s.repo.QueryInstance(ctx, params)
	if err != nil {
		return nil, errors.WithMessagef(err, "QueryInstance failed, params: %v", params)
	}
	instanceDetailEntities := make([]*InstanceDetailEntity, 0)
	for _, instancePo := range instancePos {
		instanceDetailEntity, err := s.assemblyInstanceDetailEntity(ctx, instancePo)
		if err != nil {
			slog.ErrorContext(ctx, fmt.Sprintf("assemblyInstanceDetailEntity failed, instanceID: %s, err: %v", instancePo.ID, err))
			continue
		}
		instanceDetailEntities = append(instanceDetailEntities, instanceDetailEntity)
	}
	return instanceDetailEntities, nil
}

func (s *RingiServiceImpl) assemblyInstanceDetailEntity(ctx context.Context, instancePo *RingiInstancePo) (*InstanceDetailEntity, error) {
	instance, err := newInstanceEntity(instancePo)
	if err != nil {
		return nil, err
	}
	definitionPo, err := s.getDefinitionPo(ctx, instancePo.DefinitionID, instancePo.TenantID)
	if err != nil {
		return nil, errors.WithMessagef(err, "getDefinitionPo failed, definitionID: %s", instancePo.DefinitionID)
	}
	stepPos, err := s.getAllStepPos(ctx, instancePo.ID, instancePo.TenantID)
	if err != nil {
		return nil, errors.WithMessagef(err, "getAllStepPos failed, instanceID: %s", instancePo.ID)
	}
	steps := make([]*Step, 0, len(stepPos))
	for _, stepPo := range stepPos {
		steps = append(steps, newStepEntity(stepPo))
	}
	return &InstanceDetailEntity{
		Instance:       instance,
		DefinitionName: definitionPo.Name,
		Steps:          steps,
	}, nil
}

func (s *RingiServiceImpl) getAllStepPos(ctx context.Context, instanceID string, tenantID string) ([]*RingiStepPo, error) {
	fetchCount := 100
	page := 1
	retStepPos := make([]*RingiStepPo, 0)
	for {
		stepPos, err := s.repo.QueryStep(ctx, &QueryRingiStepParams{
			InstanceID:              &instanceID,
			TenantID:                &tenantID,
			OrderbyDisplayNumberAsc: Bool(true),
			Page: &Pager{
				Page: int64(page),
				Size: int64(fetchCount),
			},
		})
		if err != nil {
			return nil, errors.WithMessagef(err, "QueryStep failed, instanceID: %s", instanceID)
		}
		if len(stepPos) == 0 {
			break
		}
		retStepPos = append(retStepPos, stepPos...)
		if len(stepPos) < fetchCount {
			break
		}
		page++
	}
	return retStepPos, nil
}

// getDefinitionPo 按id+租户取定义,查不到返回ErrDefinitionNotFound
func (s *RingiServiceImpl) getDefinitionPo(ctx context.Context, definitionID string, tenantID string) (*RingiDefinitionPo, error) {
	definitionPos, err := s.repo.QueryDefinition(ctx, &QueryRingiDefinitionParams{
		DefinitionID: &definitionID,
		TenantID:     &tenantID,
		Page: &Pager{
			Page: 1,
			Size: 1,
		},
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "QueryDefinition failed, definitionID: %s", definitionID)
	}
	if len(definitionPos) == 0 {
		return nil, errors.Wrapf(ErrDefinitionNotFound, "definitionID: %s, tenantID: %s", definitionID, tenantID)
	}
	return definitionPos[0], nil
}

func (s *RingiServiceImpl) getDefinitionEntity(ctx context.Context, definitionID string, tenantID string) (*Definition, error) {
	definitionPo, err := s.getDefinitionPo(ctx, definitionID, tenantID)
	if err != nil {
		return nil, err
	}
	return newDefinitionEntity(definitionPo)
}

// getInstancePo 按id+租户取实例,查不到返回ErrInstanceNotFound
func (s *RingiServiceImpl) getInstancePo(ctx context.Context, instanceID string, tenantID string) (*RingiInstancePo, error) {
	instancePos, err := s.repo.QueryInstance(ctx, &QueryRingiInstanceParams{
		InstanceID: &instanceID,
		TenantID:   &tenantID,
		Page: &Pager{
			Page: 1,
			Size: 1,
		},
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "QueryInstance failed, instanceID: %s", instanceID)
	}
	if len(instancePos) == 0 {
		return nil, errors.Wrapf(ErrInstanceNotFound, "instanceID: %s, tenantID: %s", instanceID, tenantID)
	}
	return instancePos[0], nil
}

// getStepPo 按id+租户取步骤,查不到返回ErrStepNotFound
func (s *RingiServiceImpl) getStepPo(ctx context.Context, stepID string, tenantID string) (*RingiStepPo, error) {
	stepPos, err := s.repo.QueryStep(ctx, &QueryRingiStepParams{
		StepID:   &stepID,
		TenantID: &tenantID,
		Page: &Pager{
			Page: 1,
			Size: 1,
		},
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "QueryStep failed, stepID: %s", stepID)
	}
	if len(stepPos) == 0 {
		return nil, errors.Wrapf(ErrStepNotFound, "stepID: %s, tenantID: %s", stepID, tenantID)
	}
	return stepPos[0], nil
}

// JoinGraphErrors 把校验错误拼成一条可读信息,日志和错误message用
func JoinGraphErrors(graphErrors []*GraphError) string {
	messages := make([]string, 0, len(graphErrors))
	for _, graphError := range graphErrors {
		messages = append(messages, graphError.Error())
	}
	return strings.Join(messages, "; ")
}

// ringiOpLockKey 实例操作的互斥锁key,同一个实例的submit/decide/cancel串行
func ringiOpLockKey(instanceID string) string {
	return fmt.Sprintf("ringi_instance_execute_%s", instanceID)
}
