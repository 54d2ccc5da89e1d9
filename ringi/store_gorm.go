package ringi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RingiDefinitionPo struct {
	ID          string           `gorm:"column:id;primaryKey" json:"id"`
	TenantID    string           `gorm:"column:tenant_id" json:"tenant_id"`
	Name        string           `gorm:"column:name" json:"name"`
	Description string           `gorm:"column:description" json:"description"`
	Version     int32            `gorm:"column:version" json:"version"`
	Status      DefinitionStatus `gorm:"column:status" json:"status"`
	Graph       []byte           `gorm:"column:graph" json:"graph"` // 定义图json,发布时存的是补全后的图
	CreatedBy   string           `gorm:"column:created_by" json:"created_by"`
	CreatedAt   int64            `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   int64            `gorm:"column:updated_at" json:"updated_at"`
}

func (RingiDefinitionPo) TableName() string {
	return "ringi_definition"
}

type RingiInstancePo struct {
	ID                string         `gorm:"column:id;primaryKey" json:"id"`
	TenantID          string         `gorm:"column:tenant_id" json:"tenant_id"`
	DefinitionID      string         `gorm:"column:definition_id" json:"definition_id"`
	DefinitionVersion int32          `gorm:"column:definition_version" json:"definition_version"` // 创建时定义的版本快照
	DisplayNumber     int64          `gorm:"column:display_number" json:"display_number"`
	Status            InstanceStatus `gorm:"column:status" json:"status"`
	CurrentStepID     string         `gorm:"column:current_step_id" json:"current_step_id"` // 当前Active步骤的id,没有时为空
	FormData          []byte         `gorm:"column:form_data" json:"form_data"`
	Approvers         []byte         `gorm:"column:approvers" json:"approvers"` // 定义节点id -> 审批人 的json
	Version           int32          `gorm:"column:version" json:"version"`
	CreatedBy         string         `gorm:"column:created_by" json:"created_by"`
	CompletedAt       int64          `gorm:"column:completed_at" json:"completed_at"` // 0表示还没走完
	CreatedAt         int64          `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         int64          `gorm:"column:updated_at" json:"updated_at"`
}

func (RingiInstancePo) TableName() string {
	return "ringi_instance"
}

type RingiStepPo struct {
	ID            string     `gorm:"column:id;primaryKey" json:"id"`
	TenantID      string     `gorm:"column:tenant_id" json:"tenant_id"`
	InstanceID    string     `gorm:"column:instance_id" json:"instance_id"`
	DefStepID     string     `gorm:"column:def_step_id" json:"def_step_id"` // 定义图里对应的节点id
	Name          string     `gorm:"column:name" json:"name"`
	DisplayNumber int64      `gorm:"column:display_number" json:"display_number"`
	Status        StepStatus `gorm:"column:status" json:"status"`
	Decision      string     `gorm:"column:decision" json:"decision"` // 完成前为空
	Comment       string     `gorm:"column:comment" json:"comment"`
	AssignedTo    string     `gorm:"column:assigned_to" json:"assigned_to"`
	Version       int32      `gorm:"column:version" json:"version"`
	StartedAt     int64      `gorm:"column:started_at" json:"started_at"`
	CompletedAt   int64      `gorm:"column:completed_at" json:"completed_at"`
	CreatedAt     int64      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     int64      `gorm:"column:updated_at" json:"updated_at"`
}

func (RingiStepPo) TableName() string {
	return "ringi_step"
}

// RingiSequenceCounterPo 展示编号的计数器,(tenant_id, entity_type)一行
type RingiSequenceCounterPo struct {
	TenantID   string             `gorm:"column:tenant_id;primaryKey" json:"tenant_id"`
	EntityType SequenceEntityType `gorm:"column:entity_type;primaryKey" json:"entity_type"`
	LastNumber int64              `gorm:"column:last_number" json:"last_number"`
	CreatedAt  int64              `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  int64              `gorm:"column:updated_at" json:"updated_at"`
}

func (RingiSequenceCounterPo) TableName() string {
	return "ringi_sequence_counter"
}

type Pager struct {
	IsNoLimit *bool `json:"is_no_limit"`
	Page      int64 `json:"page"`
	Size      int64 `json:"size"`
}

type QueryRingiDefinitionParams struct {
	DefinitionID        *string  `json:"definition_id"`
	TenantID            *string  `json:"tenant_id"`
	StatusIn            []string `json:"status_in"`
	OrderbyCreatedAtAsc *bool    `json:"orderby_created_at_asc"`
	Page                *Pager   `json:"page"`
}

type QueryRingiInstanceParams struct {
	InstanceID          *string  `json:"instance_id"`
	TenantID            *string  `json:"tenant_id"`
	DefinitionID        *string  `json:"definition_id"`
	StatusIn            []string `json:"status_in"`
	DisplayNumber       *int64   `json:"display_number"`
	CreatedBy           *string  `json:"created_by"`
	OrderbyCreatedAtAsc *bool    `json:"orderby_created_at_asc"`
	Page                *Pager   `json:"page"`
}

type QueryRingiStepParams struct {
	StepID                  *string  `json:"step_id"`
	TenantID                *string  `json:"tenant_id"`
	InstanceID              *string  `json:"instance_id"`
	DefStepID               *string  `json:"def_step_id"`
	StatusIn                []string `json:"status_in"`
	AssignedTo              *string  `json:"assigned_to"`
	OrderbyDisplayNumberAsc *bool    `json:"orderby_display_number_asc"`
	Page                    *Pager   `json:"page"`
}

type UpdateRingiDefinitionParams struct {
	Where    *UpdateRingiDefinitionWhere `json:"where" validate:"required"`
	Fields   *UpdateRingiDefinitionField `json:"field" validate:"required"`
	LimitMax int                         `json:"limit_max" validate:"required"`
}

type UpdateRingiDefinitionWhere struct {
	IDIn     []string `json:"id_in"`
	TenantID *string  `json:"tenant_id"`
	StatusIn []string `json:"status_in"`
	// Version 乐观锁,带上之后只会更新版本还停在这个值的行
	Version *int32 `json:"version"`
}

type UpdateRingiDefinitionField struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Graph       []byte  `json:"graph"`
	Version     *int32  `json:"version"`
}

type DeleteRingiDefinitionParams struct {
	DefinitionID string   `json:"definition_id" validate:"required"`
	TenantID     string   `json:"tenant_id" validate:"required"`
	StatusIn     []string `json:"status_in"`
}

type UpdateRingiInstanceParams struct {
	Where    *UpdateRingiInstanceWhere `json:"where" validate:"required"`
	Fields   *UpdateRingiInstanceField `json:"field" validate:"required"`
	LimitMax int                       `json:"limit_max" validate:"required"`
}

type UpdateRingiInstanceWhere struct {
	IDIn     []string `json:"id_in"`
	TenantID *string  `json:"tenant_id"`
	StatusIn []string `json:"status_in"`
	Version  *int32   `json:"version"`
}

type UpdateRingiInstanceField struct {
	Status        *string           `json:"status"`
	CurrentStepID *string           `json:"current_step_id"`
	FormData      *FormData         `json:"form_data"`
	Approvers     map[string]string `json:"approvers"`
	Version       *int32            `json:"version"`
	CompletedAt   *int64            `json:"completed_at"`
}

type UpdateRingiStepParams struct {
	Where    *UpdateRingiStepWhere `json:"where" validate:"required"`
	Fields   *UpdateRingiStepField `json:"field" validate:"required"`
	LimitMax int                   `json:"limit_max" validate:"required"`
}

type UpdateRingiStepWhere struct {
	IDIn       []string `json:"id_in"`
	InstanceID *string  `json:"instance_id"`
	TenantID   *string  `json:"tenant_id"`
	StatusIn   []string `json:"status_in"`
	Version    *int32   `json:"version"`
}

type UpdateRingiStepField struct {
	Status      *string `json:"status"`
	Decision    *string `json:"decision"`
	Comment     *string `json:"comment"`
	AssignedTo  *string `json:"assigned_to"`
	Version     *int32  `json:"version"`
	StartedAt   *int64  `json:"started_at"`
	CompletedAt *int64  `json:"completed_at"`
}

type ringiRepo struct {
	db *gorm.DB
}

func NewRingiRepo(db *gorm.DB) RingiRepo {
	return &ringiRepo{
		db: db,
	}
}

func (r *ringiRepo) CreateDefinition(ctx context.Context, definition *RingiDefinitionPo) (*RingiDefinitionPo, error) {
	if definition == nil {
		return nil, fmt.Errorf("nil RingiDefinitionPo")
	}
	definition.CreatedAt = time.Now().Unix()
	definition.UpdatedAt = time.Now().Unix()
	if err := r.GetDBWithContext(ctx).Create(definition).Error; err != nil {
		return nil, errors.WithMessage(err, "CreateDefinition failed")
	}
	return definition, nil
}

func buildQueryRingiDefinitionParams(db *gorm.DB, isCount bool, param *QueryRingiDefinitionParams) (*gorm.DB, error) {
	if param == nil {
		return nil, errors.New("nil QueryRingiDefinitionParams")
	}
	if param.DefinitionID != nil {
		db = db.Where("id = ?", param.DefinitionID)
	}
	if param.TenantID != nil {
		db = db.Where("tenant_id = ?", param.TenantID)
	}
	if len(param.StatusIn) != 0 {
		db = db.Where("status IN ?", param.StatusIn)
	}
	if param.OrderbyCreatedAtAsc != nil && !isCount {
		if *param.OrderbyCreatedAtAsc {
			db = db.Order("created_at asc")
		} else {
			db = db.Order("created_at desc")
		}
	}
	if !isCount {
		db2, err := buildPager(db, param.Page)
		if err != nil {
			return nil, err
		}
		db = db2
	}
	return db, nil
}

// buildPager 统一的分页处理,page/size为0时给默认值
func buildPager(db *gorm.DB, page *Pager) (*gorm.DB, error) {
	if page == nil {
		return nil, errors.New("page is nil")
	}
	if page.IsNoLimit != nil && *page.IsNoLimit {
		// 不分页,显式指定了true
		return db, nil
	}
	if page.Page == 0 {
		page.Page = 1
	}
	if page.Size == 0 {
		page.Size = 10
	}
	return db.Offset(int(page.Page-1) * int(page.Size)).Limit(int(page.Size)), nil
}

func (r *ringiRepo) QueryDefinition(ctx context.Context, param *QueryRingiDefinitionParams) ([]*RingiDefinitionPo, error) {
	if param == nil {
		return nil, fmt.Errorf("nil QueryRingiDefinitionParams")
	}
	db := r.GetDBWithContext(ctx).Model(&RingiDefinitionPo{})
	db, err := buildQueryRingiDefinitionParams(db, false, param)
	if err != nil {
		return nil, errors.WithMessage(err, "buildQueryRingiDefinitionParams failed")
	}
	pos := make([]*RingiDefinitionPo, 0)
	if err := db.Find(&pos).Error; err != nil {
		return nil, errors.WithMessage(err, "QueryDefinition failed")
	}
	return pos, nil
}

func (r *ringiRepo) CountDefinition(ctx context.Context, param *QueryRingiDefinitionParams) (int64, error) {
	if param == nil {
		return 0, fmt.Errorf("nil QueryRingiDefinitionParams")
	}
	db := r.GetDBWithContext(ctx).Model(&RingiDefinitionPo{})
	db, err := buildQueryRingiDefinitionParams(db, true, param)
	if err != nil {
		return 0, errors.WithMessage(err, "buildQueryRingiDefinitionParams failed")
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, errors.WithMessage(err, "CountDefinition failed")
	}
	return count, nil
}

func buildUpdateRingiDefinitionParams(db *gorm.DB, param *UpdateRingiDefinitionParams) (*gorm.DB, error) {
	isHasWhere := false
	if param == nil {
		return nil, errors.New("nil UpdateRingiDefinitionParams")
	}
	if param.Where == nil {
		return nil, errors.New("where is nil")
	}
	if param.Fields == nil {
		return nil, errors.New("fields is nil")
	}
	if len(param.Where.IDIn) > 0 {
		isHasWhere = true
		db = db.Where("id IN ?", param.Where.IDIn)
	}
	if param.Where.TenantID != nil {
		isHasWhere = true
		db = db.Where("tenant_id = ?", param.Where.TenantID)
	}
	if len(param.Where.StatusIn) > 0 {
		isHasWhere = true
		db = db.Where("status IN ?", param.Where.StatusIn)
	}
	if param.Where.Version != nil {
		isHasWhere = true
		db = db.Where("version = ?", param.Where.Version)
	}
	if !isHasWhere {
		return db, errors.New("update ringi definition need where condition, please check")
	}
	return db, nil
}

func buildUpdateRingiDefinitionFields(fields *UpdateRingiDefinitionField) (map[string]any, error) {
	updateFields := make(map[string]any)
	if fields.Name != nil {
		updateFields["name"] = *fields.Name
	}
	if fields.Description != nil {
		updateFields["description"] = *fields.Description
	}
	if fields.Status != nil {
		updateFields["status"] = *fields.Status
	}
	if fields.Graph != nil {
		updateFields["graph"] = fields.Graph
	}
	if fields.Version != nil {
		updateFields["version"] = *fields.Version
	}
	if len(updateFields) == 0 {
		return nil, errors.New("no fields to update")
	}
	updateFields["updated_at"] = time.Now().Unix()
	return updateFields, nil
}

func (r *ringiRepo) UpdateDefinition(ctx context.Context, param *UpdateRingiDefinitionParams) (int64, error) {
	if param == nil {
		return 0, fmt.Errorf("nil UpdateRingiDefinitionParams")
	}
	db := r.GetDBWithContext(ctx).Model(&RingiDefinitionPo{})
	db, err := buildUpdateRingiDefinitionParams(db, param)
	if err != nil {
		return 0, errors.WithMessage(err, "buildUpdateRingiDefinitionParams failed")
	}
	updateFields, err := buildUpdateRingiDefinitionFields(param.Fields)
	if err != nil {
		return 0, errors.WithMessage(err, "buildUpdateRingiDefinitionFields failed")
	}
	result := db.Updates(updateFields)
	if result.Error != nil {
		return 0, errors.WithMessage(result.Error, "UpdateDefinition failed")
	}
	if param.LimitMax > 0 && result.RowsAffected > int64(param.LimitMax) {
		// 影响行数超过预期说明where写错了,事务里调用直接回滚
		return result.RowsAffected, errors.Errorf("UpdateDefinition touched %d rows, more than limit %d", result.RowsAffected, param.LimitMax)
	}
	return result.RowsAffected, nil
}

func (r *ringiRepo) DeleteDefinition(ctx context.Context, param *DeleteRingiDefinitionParams) (int64, error) {
	if param == nil {
		return 0, fmt.Errorf("nil DeleteRingiDefinitionParams")
	}
	db := r.GetDBWithContext(ctx).
		Where("id = ?", param.DefinitionID).
		Where("tenant_id = ?", param.TenantID)
	if len(param.StatusIn) > 0 {
		db = db.Where("status IN ?", param.StatusIn)
	}
	result := db.Delete(&RingiDefinitionPo{})
	if result.Error != nil {
		return 0, errors.WithMessage(result.Error, "DeleteDefinition failed")
	}
	return result.RowsAffected, nil
}

func (r *ringiRepo) CreateInstance(ctx context.Context, instance *RingiInstancePo) (*RingiInstancePo, error) {
	if instance == nil {
		return nil, fmt.Errorf("nil RingiInstancePo")
	}
	instance.CreatedAt = time.Now().Unix()
	instance.UpdatedAt = time.Now().Unix()
	if err := r.GetDBWithContext(ctx).Create(instance).Error; err != nil {
		return nil, errors.WithMessage(err, "CreateInstance failed")
	}
	return instance, nil
}

func buildQueryRingiInstanceParams(db *gorm.DB, isCount bool, param *QueryRingiInstanceParams) (*gorm.DB, error) {
	if param == nil {
		return nil, errors.New("nil QueryRingiInstanceParams")
	}
	if param.InstanceID != nil {
		db = db.Where("id = ?", param.InstanceID)
	}
	if param.TenantID != nil {
		db = db.Where("tenant_id = ?", param.TenantID)
	}
	if param.DefinitionID != nil {
		db = db.Where("definition_id = ?", param.DefinitionID)
	}
	if len(param.StatusIn) != 0 {
		db = db.Where("status IN ?", param.StatusIn)
	}
	if param.DisplayNumber != nil {
		db = db.Where("display_number = ?", param.DisplayNumber)
	}
	if param.CreatedBy != nil {
		db = db.Where("created_by = ?", param.CreatedBy)
	}
	if param.OrderbyCreatedAtAsc != nil && !isCount {
		if *param.OrderbyCreatedAtAsc {
			db = db.Order("created_at asc")
		} else {
			db = db.Order("created_at desc")
		}
	}
	if !isCount {
		db2, err := buildPager(db, param.Page)
		if err != nil {
			return nil, err
		}
		db = db2
	}
	return db, nil
}

func (r *ringiRepo) QueryInstance(ctx context.Context, param *QueryRingiInstanceParams) ([]*RingiInstancePo, error) {
	if param == nil {
		return nil, fmt.Errorf("nil QueryRingiInstanceParams")
	}
	db := r.GetDBWithContext(ctx).Model(&RingiInstancePo{})
	db, err := buildQueryRingiInstanceParams(db, false, param)
	if err != nil {
		return nil, errors.WithMessage(err, "buildQueryRingiInstanceParams failed")
	}
	pos := make([]*RingiInstancePo, 0)
	if err := db.Find(&pos).Error; err != nil {
		return nil, errors.WithMessage(err, "QueryInstance failed")
	}
	return pos, nil
}

func (r *ringiRepo) CountInstance(ctx context.Context, param *QueryRingiInstanceParams) (int64, error) {
	if param == nil {
		return 0, fmt.Errorf("nil QueryRingiInstanceParams")
	}
	db := r.GetDBWithContext(ctx).Model(&RingiInstancePo{})
	db, err := buildQueryRingiInstanceParams(db, true, param)
	if err != nil {
		return 0, errors.WithMessage(err, "buildQueryRingiInstanceParams failed")
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, errors.WithMessage(err, "CountInstance failed")
	}
	return count, nil
}

func buildUpdateRingiInstanceParams(db *gorm.DB, param *UpdateRingiInstanceParams) (*gorm.DB, error) {
	isHasWhere := false
	if param == nil {
		return nil, errors.New("nil UpdateRingiInstanceParams")
	}
	if param.Where == nil {
		return nil, errors.New("where is nil")
	}
	if param.Fields == nil {
		return nil, errors.New("fields is nil")
	}
	if len(param.Where.IDIn) > 0 {
		isHasWhere = true
		db = db.Where("id IN ?", param.Where.IDIn)
	}
	if param.Where.TenantID != nil {
		isHasWhere = true
		db = db.Where("tenant_id = ?", param.Where.TenantID)
	}
	if len(param.Where.StatusIn) > 0 {
		isHasWhere = true
		db = db.Where("status IN ?", param.Where.StatusIn)
	}
	if param.Where.Version != nil {
		isHasWhere = true
		db = db.Where("version = ?", param.Where.Version)
	}
	if !isHasWhere {
		return db, errors.New("update ringi instance need where condition, please check")
	}
	return db, nil
}

func buildUpdateRingiInstanceFields(fields *UpdateRingiInstanceField) (map[string]any, error) {
	updateFields := make(map[string]any)
	if fields.Status != nil {
		updateFields["status"] = *fields.Status
	}
	if fields.CurrentStepID != nil {
		updateFields["current_step_id"] = *fields.CurrentStepID
	}
	if fields.FormData != nil {
		jsonData, err := fields.FormData.ToBytes()
		if err != nil {
			return nil, errors.WithMessage(err, "Marshal fields.FormData failed")
		}
		updateFields["form_data"] = jsonData
	}
	if fields.Approvers != nil {
		jsonData, err := json.Marshal(fields.Approvers)
		if err != nil {
			return nil, errors.WithMessage(err, "Marshal fields.Approvers failed")
		}
		updateFields["approvers"] = jsonData
	}
	if fields.Version != nil {
		updateFields["version"] = *fields.Version
	}
	if fields.CompletedAt != nil {
		updateFields["completed_at"] = *fields.CompletedAt
	}
	if len(updateFields) == 0 {
		return nil, errors.New("no fields to update")
	}
	updateFields["updated_at"] = time.Now().Unix()
	return updateFields, nil
}

func (r *ringiRepo) UpdateInstance(ctx context.Context, param *UpdateRingiInstanceParams) (int64, error) {
	if param == nil {
		return 0, fmt.Errorf("nil UpdateRingiInstanceParams")
	}
	db := r.GetDBWithContext(ctx).Model(&RingiInstancePo{})
	db, err := buildUpdateRingiInstanceParams(db, param)
	if err != nil {
		return 0, errors.WithMessage(err, "buildUpdateRingiInstanceParams failed")
	}
	updateFields, err := buildUpdateRingiInstanceFields(param.Fields)
	if err != nil {
		return 0, errors.WithMessage(err, "buildUpdateRingiInstanceFields failed")
	}
	result := db.Updates(updateFields)
	if result.Error != nil {
		return 0, errors.WithMessage(result.Error, "UpdateInstance failed")
	}
	if param.LimitMax > 0 && result.RowsAffected > int64(param.LimitMax) {
		return result.RowsAffected, errors.Errorf("UpdateInstance touched %d rows, more than limit %d", result.RowsAffected, param.LimitMax)
	}
	return result.RowsAffected, nil
}

func (r *ringiRepo) CreateStep(ctx context.Context, step *RingiStepPo) (*RingiStepPo, error) {
	if step == nil {
		return nil, fmt.Errorf("nil RingiStepPo")
	}
	step.CreatedAt = time.Now().Unix()
	step.UpdatedAt = time.Now().Unix()
	if err := r.GetDBWithContext(ctx).Create(step).Error; err != nil {
		return nil, errors.WithMessage(err, "CreateStep failed")
	}
	return step, nil
}

func buildQueryRingiStepParams(db *gorm.DB, isCount bool, param *QueryRingiStepParams) (*gorm.DB, error) {
	if param == nil {
		return nil, errors.New("nil QueryRingiStepParams")
	}
	if param.StepID != nil {
		db = db.Where("id = ?", param.StepID)
	}
	if param.TenantID != nil {
		db = db.Where("tenant_id = ?", param.TenantID)
	}
	if param.InstanceID != nil {
		db = db.Where("instance_id = ?", param.InstanceID)
	}
	if param.DefStepID != nil {
		db = db.Where("def_step_id = ?", param.DefStepID)
	}
	if len(param.StatusIn) != 0 {
		db = db.Where("status IN ?", param.StatusIn)
	}
	if param.AssignedTo != nil {
		db = db.Where("assigned_to = ?", param.AssignedTo)
	}
	if param.OrderbyDisplayNumberAsc != nil && !isCount {
		if *param.OrderbyDisplayNumberAsc {
			db = db.Order("display_number asc")
		} else {
			db = db.Order("display_number desc")
		}
	}
	if !isCount {
		db2, err := buildPager(db, param.Page)
		if err != nil {
			return nil, err
		}
		db = db2
	}
	return db, nil
}

func (r *ringiRepo) QueryStep(ctx context.Context, param *QueryRingiStepParams) ([]*RingiStepPo, error) {
	if param == nil {
		return nil, fmt.Errorf("nil QueryRingiStepParams")
	}
	db := r.GetDBWithContext(ctx).Model(&RingiStepPo{})
	db, err := buildQueryRingiStepParams(db, false, param)
	if err != nil {
		return nil, errors.WithMessage(err, "buildQueryRingiStepParams failed")
	}
	pos := make([]*RingiStepPo, 0)
	if err := db.Find(&pos).Error; err != nil {
		return nil, errors.WithMessage(err, "QueryStep failed")
	}
	return pos, nil
}

func buildUpdateRingiStepParams(db *gorm.DB, param *UpdateRingiStepParams) (*gorm.DB, error) {
	isHasWhere := false
	if param == nil {
		return nil, errors.New("nil UpdateRingiStepParams")
	}
	if param.Where == nil {
		return nil, errors.New("where is nil")
	}
	if param.Fields == nil {
		return nil, errors.New("fields is nil")
	}
	if len(param.Where.IDIn) > 0 {
		isHasWhere = true
		db = db.Where("id IN ?", param.Where.IDIn)
	}
	if param.Where.InstanceID != nil {
		isHasWhere = true
		db = db.Where("instance_id = ?", param.Where.InstanceID)
	}
	if param.Where.TenantID != nil {
		isHasWhere = true
		db = db.Where("tenant_id = ?", param.Where.TenantID)
	}
	if len(param.Where.StatusIn) > 0 {
		isHasWhere = true
		db = db.Where("status IN ?", param.Where.StatusIn)
	}
	if param.Where.Version != nil {
		isHasWhere = true
		db = db.Where("version = ?", param.Where.Version)
	}
	if !isHasWhere {
		return db, errors.New("update ringi step need where condition, please check")
	}
	return db, nil
}

func buildUpdateRingiStepFields(fields *UpdateRingiStepField) (map[string]any, error) {
	updateFields := make(map[string]any)
	if fields.Status != nil {
		updateFields["status"] = *fields.Status
	}
	if fields.Decision != nil {
		updateFields["decision"] = *fields.Decision
	}
	if fields.Comment != nil {
		updateFields["comment"] = *fields.Comment
	}
	if fields.AssignedTo != nil {
		updateFields["assigned_to"] = *fields.AssignedTo
	}
	if fields.Version != nil {
		updateFields["version"] = *fields.Version
	}
	if fields.StartedAt != nil {
		updateFields["started_at"] = *fields.StartedAt
	}
	if fields.CompletedAt != nil {
		updateFields["completed_at"] = *fields.CompletedAt
	}
	if len(updateFields) == 0 {
		return nil, errors.New("no fields to update")
	}
	updateFields["updated_at"] = time.Now().Unix()
	return updateFields, nil
}

func (r *ringiRepo) UpdateStep(ctx context.Context, param *UpdateRingiStepParams) (int64, error) {
	if param == nil {
		return 0, fmt.Errorf("nil UpdateRingiStepParams")
	}
	db := r.GetDBWithContext(ctx).Model(&RingiStepPo{})
	db, err := buildUpdateRingiStepParams(db, param)
	if err != nil {
		return 0, errors.WithMessage(err, "buildUpdateRingiStepParams failed")
	}
	updateFields, err := buildUpdateRingiStepFields(param.Fields)
	if err != nil {
		return 0, errors.WithMessage(err, "buildUpdateRingiStepFields failed")
	}
	result := db.Updates(updateFields)
	if result.Error != nil {
		return 0, errors.WithMessage(result.Error, "UpdateStep failed")
	}
	if param.LimitMax > 0 && result.RowsAffected > int64(param.LimitMax) {
		return result.RowsAffected, errors.Errorf("UpdateStep touched %d rows, more than limit %d", result.RowsAffected, param.LimitMax)
	}
	return result.RowsAffected, nil
}

/**
 * NextSequence 连续编号分配
 * 同一个事务里: 行锁读计数器 -> 不存在就从0建一行 -> CAS方式+1
 * sqlite不支持FOR UPDATE,这种库完全靠CAS更新兜底,
 * CAS没更新到行说明别人抢先了,返回LockFailedError让调用方重试
 */
func (r *ringiRepo) NextSequence(ctx context.Context, tenantID string, entityType SequenceEntityType) (int64, error) {
	var nextNumber int64
	err := r.Transaction(ctx, func(txCtx context.Context) error {
		db := r.GetDBWithContext(txCtx)
		counter := &RingiSequenceCounterPo{}
		query := db.Where("tenant_id = ? AND entity_type = ?", tenantID, entityType)
		if db.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		err := query.Take(counter).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 第一次用这个序列,补一行从0开始,并发撞主键的那一方拿LockFailedError重试
			now := time.Now().Unix()
			counter = &RingiSequenceCounterPo{
				TenantID:   tenantID,
				EntityType: entityType,
				LastNumber: 0,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if createErr := db.Create(counter).Error; createErr != nil {
				return errors.WithMessagef(LockFailedError, "init sequence counter failed, tenant: %s, entity: %s, err: %v", tenantID, entityType, createErr)
			}
		} else if err != nil {
			return errors.WithMessage(err, "query sequence counter failed")
		}
		next := counter.LastNumber + 1
		result := db.Model(&RingiSequenceCounterPo{}).
			Where("tenant_id = ? AND entity_type = ? AND last_number = ?", tenantID, entityType, counter.LastNumber).
			Updates(map[string]any{
				"last_number": next,
				"updated_at":  time.Now().Unix(),
			})
		if result.Error != nil {
			return errors.WithMessage(result.Error, "advance sequence counter failed")
		}
		if result.RowsAffected == 0 {
			return errors.WithMessagef(LockFailedError, "sequence counter contended, tenant: %s, entity: %s", tenantID, entityType)
		}
		nextNumber = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return nextNumber, nil
}

type contextKey string

const (
	transactionContextKey contextKey = "transaction"
)

func (r *ringiRepo) GetDBWithContext(ctx context.Context) *gorm.DB {
	tx := ctx.Value(transactionContextKey)
	if tx == nil {
		// 没有事务,直接用库连接
		return r.db.WithContext(ctx)
	}
	return tx.(*gorm.DB)
}

// Transaction 开事务执行fn,ctx里已经有事务时直接复用(可嵌套)
func (r *ringiRepo) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ctxTX := ctx.Value(transactionContextKey)
	var err error
	if ctxTX == nil {
		tx := r.db.Begin()
		defer func() {
			if err != nil {
				tx.Rollback()
			} else {
				tx.Commit()
			}
		}()
		newCtx := context.WithValue(ctx, transactionContextKey, tx)
		err = fn(newCtx)
		return err
	}
	return fn(ctx)
}
