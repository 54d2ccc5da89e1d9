package ringi

import (
	"encoding/json"

	"github.com/pkg/errors"
)

/**
 * FormData 实例携带的表单数据
 * 定义里的form schema描述有哪些字段,FormData存申请人实际填的值
 * 本质是一个json对象的包装,支持按路径读写嵌套字段,
 * 落库时整体序列化进实例表的form_data列
 */
type FormData struct {
	data map[string]any
}

func NewFormData() *FormData {
	return &FormData{
		data: make(map[string]any),
	}
}

// NewFormDataFromMap 包装现成的map,不拷贝,调用方后续不要再改传入的map
func NewFormDataFromMap(data map[string]any) *FormData {
	if data == nil {
		data = make(map[string]any)
	}
	return &FormData{
		data: data,
	}
}

// NewFormDataFromBytes 从json反序列化,空入参当成空表单
func NewFormDataFromBytes(raw []byte) (*FormData, error) {
	if len(raw) == 0 {
		return NewFormData(), nil
	}
	data := make(map[string]any)
	err := json.Unmarshal(raw, &data)
	if err != nil {
		return nil, errors.Wrapf(err, "unmarshal form data failed, raw: %s", string(raw))
	}
	return &FormData{
		data: data,
	}, nil
}

/**
 * Get 按路径取值
 * keys是嵌套路径,比如Get("expense", "amount")取data["expense"]["amount"]
 * 路径不存在或者中间层不是对象返回false
 */
func (formData *FormData) Get(keys ...string) (any, bool) {
	if len(keys) == 0 {
		return nil, false
	}
	var current any = formData.data
	for _, key := range keys {
		currentMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = currentMap[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

/**
 * Set 按路径写值
 * 中间层不存在会自动补map,中间层已经存在但不是对象会报错
 */
func (formData *FormData) Set(value any, keys ...string) error {
	if len(keys) == 0 {
		return errors.WithMessage(ErrRingiParamInvalid, "set form data need at least one key")
	}
	currentMap := formData.data
	for _, key := range keys[:len(keys)-1] {
		next, exist := currentMap[key]
		if !exist {
			nextMap := make(map[string]any)
			currentMap[key] = nextMap
			currentMap = nextMap
			continue
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return errors.WithMessagef(ErrRingiParamInvalid, "form data path %s is not a json object", key)
		}
		currentMap = nextMap
	}
	currentMap[keys[len(keys)-1]] = value
	return nil
}

// Delete 按路径删除,路径不存在直接返回
func (formData *FormData) Delete(keys ...string) {
	if len(keys) == 0 {
		return
	}
	currentMap := formData.data
	for _, key := range keys[:len(keys)-1] {
		next, exist := currentMap[key]
		if !exist {
			return
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return
		}
		currentMap = nextMap
	}
	delete(currentMap, keys[len(keys)-1])
}

func (formData *FormData) GetString(keys ...string) (string, bool) {
	value, ok := formData.Get(keys...)
	if !ok {
		return "", false
	}
	stringValue, ok := value.(string)
	return stringValue, ok
}

// GetInt64 json数字反序列化出来是float64,这里统一收敛成int64
func (formData *FormData) GetInt64(keys ...string) (int64, bool) {
	value, ok := formData.Get(keys...)
	if !ok {
		return 0, false
	}
	switch number := value.(type) {
	case int64:
		return number, true
	case int32:
		return int64(number), true
	case int:
		return int64(number), true
	case float64:
		return int64(number), true
	case json.Number:
		parsed, err := number.Int64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func (formData *FormData) GetFloat64(keys ...string) (float64, bool) {
	value, ok := formData.Get(keys...)
	if !ok {
		return 0, false
	}
	switch number := value.(type) {
	case float64:
		return number, true
	case int64:
		return float64(number), true
	case int32:
		return float64(number), true
	case int:
		return float64(number), true
	case json.Number:
		parsed, err := number.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func (formData *FormData) GetBool(keys ...string) (bool, bool) {
	value, ok := formData.Get(keys...)
	if !ok {
		return false, false
	}
	boolValue, ok := value.(bool)
	return boolValue, ok
}

func (formData *FormData) ToBytes() ([]byte, error) {
	raw, err := json.Marshal(formData.data)
	if err != nil {
		return nil, errors.Wrap(err, "marshal form data failed")
	}
	return raw, nil
}

// ToBytesWithoutError 序列化失败时退化成空对象,只给日志这类不关心失败的场景用
func (formData *FormData) ToBytesWithoutError() []byte {
	raw, err := formData.ToBytes()
	if err != nil {
		return []byte("{}")
	}
	return raw
}

// ToMap 返回内部map的引用,调用方改返回值会影响FormData本身
func (formData *FormData) ToMap() map[string]any {
	return formData.data
}

// Clone 深拷贝,走一遍json序列化,放进不同实例前用它隔离数据
func (formData *FormData) Clone() (*FormData, error) {
	raw, err := formData.ToBytes()
	if err != nil {
		return nil, err
	}
	return NewFormDataFromBytes(raw)
}

// Unmarshal 把表单数据整体解析到业务结构体
func (formData *FormData) Unmarshal(target any) error {
	raw, err := formData.ToBytes()
	if err != nil {
		return err
	}
	err = json.Unmarshal(raw, target)
	if err != nil {
		return errors.Wrap(err, "unmarshal form data to target failed")
	}
	return nil
}
