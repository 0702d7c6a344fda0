package config

import (
	"errors"
	"testing"

	"github.com/bxcodec/faker/v3"
	"github.com/stretchr/testify/assert"
)

func TestBuilder_LoadConfig(t *testing.T) {
	appEnv := AppEnv{Name: "env-" + faker.Word(), ServiceName: "svc-" + faker.Word()}

	t.Run("load params of all bound sources", func(t *testing.T) {
		builder := NewBuilder(appEnv)
		src1 := &mockSource{}
		src2 := &mockSource{}
		pb1 := builder.NewParamsBuilder(func() (Source, error) { return src1, nil })
		pb2 := builder.NewParamsBuilder(func() (Source, error) { return src2, nil })

		strParam := pb1.NewParam("str").String()
		intParam := pb2.NewParam("int").WithService("other").Int()
		assert.Equal(t, appEnv.ServiceName, strParam.service)
		assert.Equal(t, "other", intParam.service)

		src1.On("GetParameters", []param{strParam}).Return(map[paramID]interface{}{
			strParam.id(): "str-val",
		}, nil)
		src2.On("GetParameters", []param{intParam}).Return(map[paramID]interface{}{
			intParam.id(): float64(5),
		}, nil)

		cfg, err := builder.LoadConfig()
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, "str-val", cfg.StringParam(strParam).Value())
		assert.Equal(t, 5, cfg.IntParam(intParam).Value())
	})

	t.Run("fail if source can not be created", func(t *testing.T) {
		builder := NewBuilder(appEnv)
		srcErr := errors.New(faker.Sentence())
		builder.NewParamsBuilder(func() (Source, error) { return nil, srcErr }).NewParam("p").Bool()
		_, err := builder.LoadConfig()
		assert.Equal(t, srcErr, err)
	})
}
