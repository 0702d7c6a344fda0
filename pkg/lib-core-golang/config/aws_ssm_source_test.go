package config

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/bxcodec/faker/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSSMClient struct {
	mock.Mock
}

func (m *mockSSMClient) GetParameters(input *ssm.GetParametersInput) (*ssm.GetParametersOutput, error) {
	args := m.Called(input)
	return args.Get(0).(*ssm.GetParametersOutput), args.Error(1)
}

func Test_awsSSMSource_GetParameters(t *testing.T) {
	mockAppEnv := func() AppEnv {
		return AppEnv{Name: "env" + faker.Word(), ClusterName: "cluster-" + faker.Word()}
	}

	mockParam := func(key string) (StringParam, string) {
		fullKey := key + "-" + faker.Word()
		return newStringParam(fullKey, "svc-"+faker.Word()), fullKey + "-value-" + faker.Word()
	}

	type testCase struct {
		name      string
		appEnv    AppEnv
		ssmClient ssmClient
		params    []param
		assert    func(t *testing.T, values map[paramID]interface{}, err error)
	}
	tests := []func() testCase{
		func() testCase {
			appEnv := mockAppEnv()
			appEnv.ClusterName = ""
			mockClient := &mockSSMClient{}
			p1, p1val := mockParam("p1")
			p2, p2val := mockParam("p2")

			p1Name := aws.String("/" + appEnv.Name + "/" + p1.service + "/" + p1.key)
			p2Name := aws.String("/" + appEnv.Name + "/" + p2.service + "/" + p2.key)

			mockClient.On("GetParameters", &ssm.GetParametersInput{
				Names:          []*string{p1Name, p2Name},
				WithDecryption: aws.Bool(true),
			}).Return(&ssm.GetParametersOutput{
				Parameters: []*ssm.Parameter{
					{Name: p1Name, Value: aws.String(p1val)},
					{Name: p2Name, Value: aws.String(p2val)},
				},
			}, nil)

			return testCase{
				name:      "fetch service params",
				appEnv:    appEnv,
				ssmClient: mockClient,
				params:    []param{p1, p2},
				assert: func(t *testing.T, values map[paramID]interface{}, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.Equal(t, map[paramID]interface{}{
						p1.id(): p1val,
						p2.id(): p2val,
					}, values)
				},
			}
		},
		func() testCase {
			appEnv := mockAppEnv()
			mockClient := &mockSSMClient{}
			p1, p1val := mockParam("p1")
			p1ClusterVal := p1val + "-cluster"

			p1Name := aws.String("/" + appEnv.Name + "/" + p1.service + "/" + p1.key)
			p1ClusterName := aws.String("/" + appEnv.Name + "/" + appEnv.ClusterName + "/" + p1.service + "/" + p1.key)

			mockClient.On("GetParameters", &ssm.GetParametersInput{
				Names:          []*string{p1Name, p1ClusterName},
				WithDecryption: aws.Bool(true),
			}).Return(&ssm.GetParametersOutput{
				Parameters: []*ssm.Parameter{
					{Name: p1ClusterName, Value: aws.String(p1ClusterVal)},
					{Name: p1Name, Value: aws.String(p1val)},
				},
			}, nil)

			return testCase{
				name:      "prefer cluster scoped params",
				appEnv:    appEnv,
				ssmClient: mockClient,
				params:    []param{p1},
				assert: func(t *testing.T, values map[paramID]interface{}, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.Equal(t, p1ClusterVal, values[p1.id()])
				},
			}
		},
	}
	for _, tt := range tests {
		tt := tt()
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewAWSSSMSource(
				AwsSSMOpts.WithAppEnv(tt.appEnv),
				AwsSSMOpts.withSSMClient(tt.ssmClient),
			)
			if !assert.NoError(t, err) {
				return
			}
			values, err := src.GetParameters(context.Background(), tt.params)
			tt.assert(t, values, err)
		})
	}
}
