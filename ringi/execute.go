package ringi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (s *RingiServiceImpl) CreateInstance(ctx context.Context, req *CreateInstanceReq) (*Instance, error) {
	if err := validatorUtil.Struct(req); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "CreateInstance failed, req: %v,err: %v", req, err)
	}
	definitionPo, err := s.getDefinitionPo(ctx, req.DefinitionID, req.TenantID)
	if err != nil {
		return nil, errors.WithMessagef(err, "CreateInstance failed, definitionID: %s", req.DefinitionID)
	}
	if definitionPo.Status != DefinitionStatusPublished {
		return nil, errors.Wrapf(ErrStateViolation, "only published definition can spawn instances, definitionID: %s, status: %s", req.DefinitionID, definitionPo.Status)
	}
	displayNumber, err := s.repo.NextSequence(ctx, req.TenantID, SequenceEntityTypeInstance)
	if err != nil {
		return nil, errors.WithMessagef(err, "NextSequence failed, tenantID: %s", req.TenantID)
	}
	formData := NewFormDataFromMap(req.FormData)
	instancePo, err := s.repo.CreateInstance(ctx, &RingiInstancePo{
		ID:                uuid.NewString(),
		TenantID:          req.TenantID,
		DefinitionID:      req.DefinitionID,
		DefinitionVersion: definitionPo.Version,
		DisplayNumber:     displayNumber,
		Status:            InstanceStatusDraft,
		FormData:          formData.ToBytesWithoutError(),
		Version:           1,
		CreatedBy:         req.CreatedBy,
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "CreateInstance failed, definitionID: %s", req.DefinitionID)
	}
	return newInstanceEntity(instancePo)
}

func (s *RingiServiceImpl) SubmitInstance(ctx context.Context, req *SubmitInstanceReq) (*Instance, error) {
	if err := validatorUtil.Struct(req); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "SubmitInstance failed, req: %v,err: %v", req, err)
	}
	var instance *Instance
	err := s.executeLock.NonBlockingSynchronized(ctx,
		ringiOpLockKey(req.InstanceID),
		10*time.Minute,
		func(ctx context.Context) error {
			instancePo, err := s.getInstancePo(ctx, req.InstanceID, req.TenantID)
			if err != nil {
				return err
			}
			if instancePo.Version != req.ExpectedVersion {
				return errors.Wrapf(ErrVersionConflict, "instance version mismatch, instanceID: %s, expected: %d, current: %d", req.InstanceID, req.ExpectedVersion, instancePo.Version)
			}
			if instancePo.Status != InstanceStatusDraft {
				return errors.Wrapf(ErrStateViolation, "only draft instance can be submitted, instanceID: %s, status: %s", req.InstanceID, instancePo.Status)
			}
			definitionPo, err := s.getDefinitionPo(ctx, instancePo.DefinitionID, req.TenantID)
			if err != nil {
				return err
			}
			if definitionPo.Status == DefinitionStatusDraft {
				// 实例只能挂在published定义下,出现这种数据说明定义被绕过流程改过
				return errors.Wrapf(ErrDataIntegrity, "instance bound to unpublished definition, instanceID: %s, definitionID: %s", req.InstanceID, definitionPo.ID)
			}
			graph, err := ParseDefinitionGraph(definitionPo.Graph)
			if err != nil {
				return errors.Wrapf(ErrDataIntegrity, "definition graph broken, definitionID: %s, err: %v", definitionPo.ID, err)
			}
			startStep := graph.StartStep()
			if startStep == nil {
				return errors.Wrapf(ErrDataIntegrity, "published graph has no start step, definitionID: %s", definitionPo.ID)
			}
			startTransition := graph.FindTransition(startStep.ID, "")
			if startTransition == nil {
				return errors.Wrapf(ErrDataIntegrity, "published graph start step has no outgoing transition, definitionID: %s", definitionPo.ID)
			}
			firstStepDef := graph.StepByID(startTransition.To)
			if firstStepDef == nil || firstStepDef.Kind != StepKindApproval {
				return errors.Wrapf(ErrDataIntegrity, "start transition must point at an approval step, definitionID: %s, to: %s", definitionPo.ID, startTransition.To)
			}
			// 审批人绑定: 提交带了就校验覆盖后整体替换,没带就沿用实例上已有的(重新提交的场景)
			approvers, err := parseApprovers(instancePo.Approvers)
			if err != nil {
				return err
			}
			if len(req.Approvers) > 0 {
				approvers, err = buildApproverMap(graph, req.Approvers)
				if err != nil {
					return err
				}
			}
			stepNumber, err := s.repo.NextSequence(ctx, req.TenantID, SequenceEntityTypeStep)
			if err != nil {
				return errors.WithMessagef(err, "NextSequence failed, tenantID: %s", req.TenantID)
			}
			newStepID := uuid.NewString()
			now := time.Now().Unix()
			updateFields := &UpdateRingiInstanceField{
				Status:        String(InstanceStatusInProgress),
				CurrentStepID: String(newStepID),
				Version:       Int32(req.ExpectedVersion + 1),
			}
			if req.FormData != nil {
				updateFields.FormData = NewFormDataFromMap(req.FormData)
			}
			if len(req.Approvers) > 0 {
				updateFields.Approvers = approvers
			}
			err = s.repo.Transaction(ctx, func(ctx context.Context) error {
				rowsAffected, err := s.repo.UpdateInstance(ctx, &UpdateRingiInstanceParams{
					Where: &UpdateRingiInstanceWhere{
						IDIn:     []string{req.InstanceID},
						TenantID: String(req.TenantID),
						StatusIn: []string{InstanceStatusDraft},
						Version:  Int32(req.ExpectedVersion),
					},
					Fields:   updateFields,
					LimitMax: 1,
				})
				if err != nil {
					return errors.WithMessagef(err, "UpdateInstance failed, instanceID: %s", req.InstanceID)
				}
				if rowsAffected == 0 {
					return errors.Wrapf(ErrVersionConflict, "instance changed concurrently, instanceID: %s, expected version: %d", req.InstanceID, req.ExpectedVersion)
				}
				_, err = s.repo.CreateStep(ctx, &RingiStepPo{
					ID:            newStepID,
					TenantID:      req.TenantID,
					InstanceID:    req.InstanceID,
					DefStepID:     firstStepDef.ID,
					Name:          firstStepDef.Name,
					DisplayNumber: stepNumber,
					Status:        StepStatusActive,
					AssignedTo:    approvers[firstStepDef.ID],
					Version:       1,
					StartedAt:     now,
				})
				if err != nil {
					return errors.WithMessagef(err, "CreateStep failed, instanceID: %s", req.InstanceID)
				}
				return nil
			})
			if err != nil {
				return err
			}
			instancePoAfter, err := s.getInstancePo(ctx, req.InstanceID, req.TenantID)
			if err != nil {
				return err
			}
			instance, err = newInstanceEntity(instancePoAfter)
			return err
		})
	if err != nil {
		return nil, errors.WithMessagef(err, "SubmitInstance failed, instanceID: %s", req.InstanceID)
	}
	return instance, nil
}

func (s *RingiServiceImpl) Decide(ctx context.Context, req *DecideReq) (*Instance, error) {
	if err := validatorUtil.Struct(req); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "Decide failed, req: %v,err: %v", req, err)
	}
	var instance *Instance
	err := s.executeLock.NonBlockingSynchronized(ctx,
		ringiOpLockKey(req.InstanceID),
		10*time.Minute,
		func(ctx context.Context) error {
			stepPo, err := s.getStepPo(ctx, req.StepID, req.TenantID)
			if err != nil {
				return err
			}
			if stepPo.InstanceID != req.InstanceID {
				return errors.Wrapf(ErrRingiParamInvalid, "step does not belong to instance, stepID: %s, instanceID: %s", req.StepID, req.InstanceID)
			}
			if stepPo.AssignedTo != "" && req.DecidedBy != "" && stepPo.AssignedTo != req.DecidedBy {
				return errors.Wrapf(ErrNoPermission, "step assigned to %s, stepID: %s", stepPo.AssignedTo, req.StepID)
			}
			if stepPo.Version != req.ExpectedStepVersion {
				return errors.Wrapf(ErrVersionConflict, "step version mismatch, stepID: %s, expected: %d, current: %d", req.StepID, req.ExpectedStepVersion, stepPo.Version)
			}
			if stepPo.Status != StepStatusActive {
				return errors.Wrapf(ErrStateViolation, "only active step can be decided, stepID: %s, status: %s", req.StepID, stepPo.Status)
			}
			instancePo, err := s.getInstancePo(ctx, req.InstanceID, req.TenantID)
			if err != nil {
				return err
			}
			if instancePo.Status != InstanceStatusInProgress {
				return errors.Wrapf(ErrStateViolation, "only in_progress instance can be decided, instanceID: %s, status: %s", req.InstanceID, instancePo.Status)
			}
			if instancePo.CurrentStepID != stepPo.ID {
				return errors.Wrapf(ErrStateViolation, "step is not the current step, stepID: %s, currentStepID: %s", req.StepID, instancePo.CurrentStepID)
			}
			definitionPo, err := s.getDefinitionPo(ctx, instancePo.DefinitionID, req.TenantID)
			if err != nil {
				return err
			}
			graph, err := ParseDefinitionGraph(definitionPo.Graph)
			if err != nil {
				return errors.Wrapf(ErrDataIntegrity, "definition graph broken, definitionID: %s, err: %v", definitionPo.ID, err)
			}
			trigger, ok := decisionTrigger(req.Decision)
			if !ok {
				return errors.Wrapf(ErrRingiParamInvalid, "unknown decision %s", req.Decision)
			}
			// 发布时补全过的图,approval节点approve/reject两条边都一定在,找不到就是数据坏了
			transition := graph.FindTransition(stepPo.DefStepID, trigger)
			if transition == nil {
				return errors.Wrapf(ErrDataIntegrity, "no %s transition from step %s, definitionID: %s", trigger, stepPo.DefStepID, definitionPo.ID)
			}
			destStepDef := graph.StepByID(transition.To)
			if destStepDef == nil {
				return errors.Wrapf(ErrDataIntegrity, "transition target %s not in graph, definitionID: %s", transition.To, definitionPo.ID)
			}
			now := time.Now().Unix()
			completeStep := func(ctx context.Context) error {
				rowsAffected, err := s.repo.UpdateStep(ctx, &UpdateRingiStepParams{
					Where: &UpdateRingiStepWhere{
						IDIn:     []string{req.StepID},
						TenantID: String(req.TenantID),
						StatusIn: []string{StepStatusActive},
						Version:  Int32(req.ExpectedStepVersion),
					},
					Fields: &UpdateRingiStepField{
						Status:      String(StepStatusCompleted),
						Decision:    String(req.Decision),
						Comment:     String(req.Comment),
						Version:     Int32(req.ExpectedStepVersion + 1),
						CompletedAt: Int64(now),
					},
					LimitMax: 1,
				})
				if err != nil {
					return errors.WithMessagef(err, "UpdateStep failed, stepID: %s", req.StepID)
				}
				if rowsAffected == 0 {
					return errors.Wrapf(ErrVersionConflict, "step changed concurrently, stepID: %s, expected version: %d", req.StepID, req.ExpectedStepVersion)
				}
				return nil
			}
			switch destStepDef.Kind {
			case StepKindEnd:
				outcome := destStepDef.Outcome
				if outcome != DecisionApproved && outcome != DecisionRejected {
					return errors.Wrapf(ErrDataIntegrity, "end step %s has invalid status %q, definitionID: %s", destStepDef.ID, outcome, definitionPo.ID)
				}
				err = s.repo.Transaction(ctx, func(ctx context.Context) error {
					if err := completeStep(ctx); err != nil {
						return err
					}
					rowsAffected, err := s.repo.UpdateInstance(ctx, &UpdateRingiInstanceParams{
						Where: &UpdateRingiInstanceWhere{
							IDIn:     []string{req.InstanceID},
							TenantID: String(req.TenantID),
							StatusIn: []string{InstanceStatusInProgress},
							Version:  Int32(instancePo.Version),
						},
						Fields: &UpdateRingiInstanceField{
							Status:        String(outcome),
							CurrentStepID: String(""),
							Version:       Int32(instancePo.Version + 1),
							CompletedAt:   Int64(now),
						},
						LimitMax: 1,
					})
					if err != nil {
						return errors.WithMessagef(err, "UpdateInstance failed, instanceID: %s", req.InstanceID)
					}
					if rowsAffected == 0 {
						return errors.Wrapf(ErrVersionConflict, "instance changed concurrently, instanceID: %s", req.InstanceID)
					}
					return nil
				})
				if err != nil {
					return err
				}
				slog.InfoContext(ctx, fmt.Sprintf("ringi instance finished, instanceID: %s, status: %s", req.InstanceID, outcome))
			case StepKindApproval:
				stepNumber, err := s.repo.NextSequence(ctx, req.TenantID, SequenceEntityTypeStep)
				if err != nil {
					return errors.WithMessagef(err, "NextSequence failed, tenantID: %s", req.TenantID)
				}
				approvers, err := parseApprovers(instancePo.Approvers)
				if err != nil {
					return err
				}
				newStepID := uuid.NewString()
				err = s.repo.Transaction(ctx, func(ctx context.Context) error {
					if err := completeStep(ctx); err != nil {
						return err
					}
					_, err := s.repo.CreateStep(ctx, &RingiStepPo{
						ID:            newStepID,
						TenantID:      req.TenantID,
						InstanceID:    req.InstanceID,
						DefStepID:     destStepDef.ID,
						Name:          destStepDef.Name,
						DisplayNumber: stepNumber,
						Status:        StepStatusActive,
						AssignedTo:    approvers[destStepDef.ID],
						Version:       1,
						StartedAt:     now,
					})
					if err != nil {
						return errors.WithMessagef(err, "CreateStep failed, instanceID: %s", req.InstanceID)
					}
					rowsAffected, err := s.repo.UpdateInstance(ctx, &UpdateRingiInstanceParams{
						Where: &UpdateRingiInstanceWhere{
							IDIn:     []string{req.InstanceID},
							TenantID: String(req.TenantID),
							StatusIn: []string{InstanceStatusInProgress},
							Version:  Int32(instancePo.Version),
						},
						Fields: &UpdateRingiInstanceField{
							CurrentStepID: String(newStepID),
							Version:       Int32(instancePo.Version + 1),
						},
						LimitMax: 1,
					})
					if err != nil {
						return errors.WithMessagef(err, "UpdateInstance failed, instanceID: %s", req.InstanceID)
					}
					if rowsAffected == 0 {
						return errors.Wrapf(ErrVersionConflict, "instance changed concurrently, instanceID: %s", req.InstanceID)
					}
					return nil
				})
				if err != nil {
					return err
				}
			default:
				return errors.Wrapf(ErrDataIntegrity, "transition target %s has unexpected type %s, definitionID: %s", destStepDef.ID, destStepDef.Kind, definitionPo.ID)
			}
			instancePoAfter, err := s.getInstancePo(ctx, req.InstanceID, req.TenantID)
			if err != nil {
				return err
			}
			instance, err = newInstanceEntity(instancePoAfter)
			return err
		})
	if err != nil {
		return nil, errors.WithMessagef(err, "Decide failed, instanceID: %s, stepID: %s", req.InstanceID, req.StepID)
	}
	return instance, nil
}

func (s *RingiServiceImpl) RequestChanges(ctx context.Context, req *RequestChangesReq) (*Instance, error) {
	if err := validatorUtil.Struct(req); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "RequestChanges failed, req: %v,err: %v", req, err)
	}
	var instance *Instance
	err := s.executeLock.NonBlockingSynchronized(ctx,
		ringiOpLockKey(req.InstanceID),
		10*time.Minute,
		func(ctx context.Context) error {
			stepPo, err := s.getStepPo(ctx, req.StepID, req.TenantID)
			if err != nil {
				return err
			}
			if stepPo.InstanceID != req.InstanceID {
				return errors.Wrapf(ErrRingiParamInvalid, "step does not belong to instance, stepID: %s, instanceID: %s", req.StepID, req.InstanceID)
			}
			if stepPo.AssignedTo != "" && req.RequestedBy != "" && stepPo.AssignedTo != req.RequestedBy {
				return errors.Wrapf(ErrNoPermission, "step assigned to %s, stepID: %s", stepPo.AssignedTo, req.StepID)
			}
			if stepPo.Version != req.ExpectedStepVersion {
				return errors.Wrapf(ErrVersionConflict, "step version mismatch, stepID: %s, expected: %d, current: %d", req.StepID, req.ExpectedStepVersion, stepPo.Version)
			}
			if stepPo.Status != StepStatusActive {
				return errors.Wrapf(ErrStateViolation, "only active step can request changes, stepID: %s, status: %s", req.StepID, stepPo.Status)
			}
			instancePo, err := s.getInstancePo(ctx, req.InstanceID, req.TenantID)
			if err != nil {
				return err
			}
			if instancePo.Status != InstanceStatusInProgress {
				return errors.Wrapf(ErrStateViolation, "only in_progress instance can request changes, instanceID: %s, status: %s", req.InstanceID, instancePo.Status)
			}
			if instancePo.CurrentStepID != stepPo.ID {
				return errors.Wrapf(ErrStateViolation, "step is not the current step, stepID: %s, currentStepID: %s", req.StepID, instancePo.CurrentStepID)
			}
			now := time.Now().Unix()
			err = s.repo.Transaction(ctx, func(ctx context.Context) error {
				// 差回不算审批完成,步骤标记为skipped,意见留在步骤上
				rowsAffected, err := s.repo.UpdateStep(ctx, &UpdateRingiStepParams{
					Where: &UpdateRingiStepWhere{
						IDIn:     []string{req.StepID},
						TenantID: String(req.TenantID),
						StatusIn: []string{StepStatusActive},
						Version:  Int32(req.ExpectedStepVersion),
					},
					Fields: &UpdateRingiStepField{
						Status:      String(StepStatusSkipped),
						Comment:     String(req.Comment),
						Version:     Int32(req.ExpectedStepVersion + 1),
						CompletedAt: Int64(now),
					},
					LimitMax: 1,
				})
				if err != nil {
					return errors.WithMessagef(err, "UpdateStep failed, stepID: %s", req.StepID)
				}
				if rowsAffected == 0 {
					return errors.Wrapf(ErrVersionConflict, "step changed concurrently, stepID: %s, expected version: %d", req.StepID, req.ExpectedStepVersion)
				}
				// 实例退回draft,表单和历史步骤都保留,申请人改完重新提交
				rowsAffected, err = s.repo.UpdateInstance(ctx, &UpdateRingiInstanceParams{
					Where: &UpdateRingiInstanceWhere{
						IDIn:     []string{req.InstanceID},
						TenantID: String(req.TenantID),
						StatusIn: []string{InstanceStatusInProgress},
						Version:  Int32(instancePo.Version),
					},
					Fields: &UpdateRingiInstanceField{
						Status:        String(InstanceStatusDraft),
						CurrentStepID: String(""),
						Version:       Int32(instancePo.Version + 1),
					},
					LimitMax: 1,
				})
				if err != nil {
					return errors.WithMessagef(err, "UpdateInstance failed, instanceID: %s", req.InstanceID)
				}
				if rowsAffected == 0 {
					return errors.Wrapf(ErrVersionConflict, "instance changed concurrently, instanceID: %s", req.InstanceID)
				}
				return nil
			})
			if err != nil {
				return err
			}
			instancePoAfter, err := s.getInstancePo(ctx, req.InstanceID, req.TenantID)
			if err != nil {
				return err
			}
			instance, err = newInstanceEntity(instancePoAfter)
			return err
		})
	if err != nil {
		return nil, errors.WithMessagef(err, "RequestChanges failed, instanceID: %s, stepID: %s", req.InstanceID, req.StepID)
	}
	return instance, nil
}

func (s *RingiServiceImpl) CancelInstance(ctx context.Context, req *CancelInstanceReq) (*Instance, error) {
	if err := validatorUtil.Struct(req); err != nil {
		return nil, errors.Wrapf(ErrRingiParamInvalid, "CancelInstance failed, req: %v,err: %v", req, err)
	}
	var instance *Instance
	err := s.executeLock.NonBlockingSynchronized(ctx,
		ringiOpLockKey(req.InstanceID),
		10*time.Minute,
		func(ctx context.Context) error {
			instancePo, err := s.getInstancePo(ctx, req.InstanceID, req.TenantID)
			if err != nil {
				return err
			}
			if IsOverInstanceStatus(instancePo.Status) {
				return errors.Wrapf(ErrStateViolation, "instance already finished, instanceID: %s, status: %s", req.InstanceID, instancePo.Status)
			}
			if instancePo.Version != req.ExpectedVersion {
				return errors.Wrapf(ErrVersionConflict, "instance version mismatch, instanceID: %s, expected: %d, current: %d", req.InstanceID, req.ExpectedVersion, instancePo.Version)
			}
			now := time.Now().Unix()
			err = s.repo.Transaction(ctx, func(ctx context.Context) error {
				// 取消不推进流程,实例版本保持不变,只用版本做并发守卫
				rowsAffected, err := s.repo.UpdateInstance(ctx, &UpdateRingiInstanceParams{
					Where: &UpdateRingiInstanceWhere{
						IDIn:     []string{req.InstanceID},
						TenantID: String(req.TenantID),
						StatusIn: []string{InstanceStatusDraft, InstanceStatusPending, InstanceStatusInProgress},
						Version:  Int32(req.ExpectedVersion),
					},
					Fields: &UpdateRingiInstanceField{
						Status:        String(InstanceStatusCancelled),
						CurrentStepID: String(""),
						CompletedAt:   Int64(now),
					},
					LimitMax: 1,
				})
				if err != nil {
					return errors.WithMessagef(err, "UpdateInstance failed, instanceID: %s", req.InstanceID)
				}
				if rowsAffected == 0 {
					return errors.Wrapf(ErrVersionConflict, "instance changed concurrently, instanceID: %s, expected version: %d", req.InstanceID, req.ExpectedVersion)
				}
				// 还挂着的步骤一并跳过,draft实例没有active步骤,更新0行是正常的
				_, err = s.repo.UpdateStep(ctx, &UpdateRingiStepParams{
					Where: &UpdateRingiStepWhere{
						InstanceID: String(req.InstanceID),
						TenantID:   String(req.TenantID),
						StatusIn:   []string{StepStatusPending, StepStatusActive},
					},
					Fields: &UpdateRingiStepField{
						Status:      String(StepStatusSkipped),
						CompletedAt: Int64(now),
					},
					LimitMax: 1,
				})
				if err != nil {
					return errors.WithMessagef(err, "UpdateStep failed, instanceID: %s", req.InstanceID)
				}
				return nil
			})
			if err != nil {
				return err
			}
			instancePoAfter, err := s.getInstancePo(ctx, req.InstanceID, req.TenantID)
			if err != nil {
				return err
			}
			instance, err = newInstanceEntity(instancePoAfter)
			return err
		})
	if err != nil {
		return nil, errors.WithMessagef(err, "CancelInstance failed, instanceID: %s", req.InstanceID)
	}
	return instance, nil
}

// buildApproverMap 校验审批人列表恰好覆盖全部审批节点,通过后转成map
func buildApproverMap(graph *DefinitionGraph, approvers []*StepApprover) (map[string]string, error) {
	approvalSteps := graph.ApprovalSteps()
	approvalStepIDs := make(map[string]bool, len(approvalSteps))
	for _, step := range approvalSteps {
		approvalStepIDs[step.ID] = true
	}
	approverMap := make(map[string]string, len(approvers))
	for _, approver := range approvers {
		if !approvalStepIDs[approver.DefStepID] {
			return nil, errors.Wrapf(ErrRingiParamInvalid, "approver bound to unknown approval step %s", approver.DefStepID)
		}
		if _, exist := approverMap[approver.DefStepID]; exist {
			return nil, errors.Wrapf(ErrRingiParamInvalid, "duplicate approver for step %s", approver.DefStepID)
		}
		approverMap[approver.DefStepID] = approver.AssignedTo
	}
	for _, step := range approvalSteps {
		if _, exist := approverMap[step.ID]; !exist {
			return nil, errors.Wrapf(ErrRingiParamInvalid, "approver missing for approval step %s", step.ID)
		}
	}
	return approverMap, nil
}

func parseApprovers(raw []byte) (map[string]string, error) {
	approvers := make(map[string]string)
	if len(raw) == 0 {
		return approvers, nil
	}
	if err := json.Unmarshal(raw, &approvers); err != nil {
		return nil, errors.Wrap(err, "parse approvers failed")
	}
	return approvers, nil
}
