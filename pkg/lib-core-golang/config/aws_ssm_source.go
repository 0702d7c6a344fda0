package config

import (
	"context"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/version"
)

type ssmClient interface {
	GetParameters(input *ssm.GetParametersInput) (*ssm.GetParametersOutput, error)
}

type ssmClientAuthTokenMiddleware func(req *http.Request) (*http.Response, error)

func (rt ssmClientAuthTokenMiddleware) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req)
}

func newSSMClientAuthTokenMiddleware(authToken string, next http.RoundTripper) http.RoundTripper {
	return ssmClientAuthTokenMiddleware(func(req *http.Request) (*http.Response, error) {
		req.Header.Add(awsSSMEndpointTokenHeaderName, authToken)
		req.Header.Add("x-requested-by", version.AppName+"("+version.Version+")")
		return next.RoundTrip(req)
	})
}

func newSSMClient() (ssmClient, error) {
	s, err := session.NewSession()
	if err != nil {
		return nil, err
	}

	clientCfg := aws.NewConfig()

	if configURL := os.Getenv(awsSSMEndpointURLVar); configURL != "" {
		logger.Info(context.Background(), "Using service config: %v", configURL)
		httpClient := &http.Client{
			Transport: newSSMClientAuthTokenMiddleware(
				os.Getenv(awsSSMEndpointTokenVar),
				http.DefaultTransport,
			),
		}
		clientCfg = clientCfg.
			WithEndpoint(configURL).
			WithHTTPClient(httpClient)
	}

	return ssm.New(s, clientCfg), nil
}

type awsSSMSource struct {
	appEnv    AppEnv
	ssmClient ssmClient
}

// GetParameters resolves /<env>/<service>/<key> names. When a cluster name is
// set, /<env>/<cluster>/<service>/<key> takes precedence.
func (s *awsSSMSource) GetParameters(ctx context.Context, params []param) (map[paramID]interface{}, error) {
	envName := s.appEnv.Name
	clusterName := s.appEnv.ClusterName
	names := make([]*string, 0, len(params)*2)
	type paramValuePrio struct {
		id   paramID
		prio int
	}

	nameToScore := make(map[string]*paramValuePrio, len(params))
	clusterNameToScore := make(map[string]*paramValuePrio, len(params))

	for _, p := range params {
		id := p.id()
		serviceScopedName := "/" + envName + "/" + id.service + "/" + id.key
		names = append(names, aws.String(serviceScopedName))
		score := &paramValuePrio{id: id}
		nameToScore[serviceScopedName] = score
		if clusterName != "" {
			clusterScopedName := "/" + envName + "/" + clusterName + "/" + id.service + "/" + id.key
			names = append(names, aws.String(clusterScopedName))
			clusterNameToScore[clusterScopedName] = score
		}
	}
	logger.WithData(diag.MsgData{"paths": names}).Debug(ctx, "Attempting to get SSM parameters")
	output, err := s.ssmClient.GetParameters(&ssm.GetParametersInput{
		Names:          names,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	result := make(map[paramID]interface{}, len(output.Parameters))
	for _, awsParam := range output.Parameters {
		if score, ok := nameToScore[*awsParam.Name]; ok && score.prio < 1 {
			result[score.id] = *awsParam.Value
			score.prio = 1
		}
		if score, ok := clusterNameToScore[*awsParam.Name]; ok {
			result[score.id] = *awsParam.Value
			score.prio = 2
		}
	}
	return result, nil
}

// AwsSSMOpt is an option of an aws ssm config source
type AwsSSMOpt func(s *awsSSMSource)

// AwsSSMOpts are options of an aws ssm source
var AwsSSMOpts = struct {
	// WithAppEnv option will set the app env
	WithAppEnv func(appEnv AppEnv) AwsSSMOpt

	withSSMClient func(client ssmClient) AwsSSMOpt
}{
	WithAppEnv: func(appEnv AppEnv) AwsSSMOpt {
		return func(s *awsSSMSource) {
			s.appEnv = appEnv
		}
	},
	withSSMClient: func(client ssmClient) AwsSSMOpt {
		return func(s *awsSSMSource) {
			s.ssmClient = client
		}
	},
}

// NewAWSSSMSource creates a source that reads params from aws SSM.
func NewAWSSSMSource(opts ...AwsSSMOpt) (Source, error) {
	source := &awsSSMSource{}

	for _, opt := range opts {
		opt(source)
	}

	if source.ssmClient == nil {
		client, err := newSSMClient()
		if err != nil {
			return nil, err
		}
		source.ssmClient = client
	}

	return source, nil
}
