package tests

import (
	"testing"

	"github.com/blingmoon/ringi-flow/ringi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormDataSimple 测试表单数据的基本功能
func TestFormDataSimple(t *testing.T) {
	t.Run("创建和读取", func(t *testing.T) {
		// 从 JSON 创建
		jsonStr := `{"title":"差旅报销","amount":1800}`
		formData, err := ringi.NewFormDataFromBytes([]byte(jsonStr))
		require.NoError(t, err)

		title, ok := formData.GetString("title")
		assert.True(t, ok)
		assert.Equal(t, "差旅报销", title)

		amount, ok := formData.GetInt64("amount")
		assert.True(t, ok)
		assert.Equal(t, int64(1800), amount)
	})

	t.Run("从 map 创建", func(t *testing.T) {
		data := map[string]any{
			"applicant": "alice",
			"amount":    95.5,
		}

		formData := ringi.NewFormDataFromMap(data)
		applicant, ok := formData.GetString("applicant")
		assert.True(t, ok)
		assert.Equal(t, "alice", applicant)
	})

	t.Run("设置和获取值", func(t *testing.T) {
		formData := ringi.NewFormData()

		// 设置值
		err := formData.Set("value1", "key1")
		assert.NoError(t, err)

		err = formData.Set(123, "key2")
		assert.NoError(t, err)

		// 获取值
		val1, ok := formData.GetString("key1")
		assert.True(t, ok)
		assert.Equal(t, "value1", val1)

		val2, ok := formData.GetInt64("key2")
		assert.True(t, ok)
		assert.Equal(t, int64(123), val2)
	})

	t.Run("嵌套路径", func(t *testing.T) {
		formData := ringi.NewFormData()

		// 设置嵌套值
		err := formData.Set("张三", "applicant", "name")
		assert.NoError(t, err)

		err = formData.Set(30, "applicant", "age")
		assert.NoError(t, err)

		// 获取嵌套值
		name, ok := formData.GetString("applicant", "name")
		assert.True(t, ok)
		assert.Equal(t, "张三", name)

		age, ok := formData.GetInt64("applicant", "age")
		assert.True(t, ok)
		assert.Equal(t, int64(30), age)
	})

	t.Run("转换为字节", func(t *testing.T) {
		formData := ringi.NewFormDataFromMap(map[string]any{
			"key": "value",
		})

		raw, err := formData.ToBytes()
		assert.NoError(t, err)
		assert.NotEmpty(t, raw)

		// 从字节恢复
		restored, err := ringi.NewFormDataFromBytes(raw)
		require.NoError(t, err)
		val, ok := restored.GetString("key")
		assert.True(t, ok)
		assert.Equal(t, "value", val)
	})

	t.Run("克隆", func(t *testing.T) {
		original := ringi.NewFormDataFromMap(map[string]any{
			"name": "original",
		})

		cloned, err := original.Clone()
		require.NoError(t, err)
		err = cloned.Set("cloned", "name")
		require.NoError(t, err)

		// 验证原始对象未改变
		name, _ := original.GetString("name")
		assert.Equal(t, "original", name)

		clonedName, _ := cloned.GetString("name")
		assert.Equal(t, "cloned", clonedName)
	})
}
