package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut  *ssm.GetParameterOutput
	getErr  error
	lastIn  *ssm.GetParameterInput
	callCnt int
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	f.callCnt++
	return f.getOut, f.getErr
}

func paramOut(v *string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: aws.String("/poker/table"), Value: v}}
}

func TestResolve_HappyPath(t *testing.T) {
	api := &fakeAPI{getOut: paramOut(aws.String(" poker-sessions-prod \n"))}
	client, err := New(api)
	require.NoError(t, err)

	v, err := client.Resolve(context.Background(), "/poker/table", "sessions")
	require.NoError(t, err)
	require.Equal(t, "poker-sessions-prod", v)
	require.Equal(t, "/poker/table", *api.lastIn.Name)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestResolve_EmptyNameUsesFallback(t *testing.T) {
	api := &fakeAPI{}
	client, err := New(api)
	require.NoError(t, err)

	v, err := client.Resolve(context.Background(), "  ", "sessions")
	require.NoError(t, err)
	require.Equal(t, "sessions", v)
	require.Zero(t, api.callCnt)
}

func TestResolve_MissingValue(t *testing.T) {
	client, err := New(&fakeAPI{getOut: paramOut(nil)})
	require.NoError(t, err)
	_, err = client.Resolve(context.Background(), "/poker/table", "sessions")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing value")
}

func TestResolve_BlankValue(t *testing.T) {
	client, err := New(&fakeAPI{getOut: paramOut(aws.String("  "))})
	require.NoError(t, err)
	_, err = client.Resolve(context.Background(), "/poker/table", "sessions")
	require.Error(t, err)
	require.Contains(t, err.Error(), "blank")
}

func TestResolve_ApiError(t *testing.T) {
	client, err := New(&fakeAPI{getErr: errors.New("ParameterNotFound")})
	require.NoError(t, err)
	_, err = client.Resolve(context.Background(), "/poker/table", "sessions")
	require.Error(t, err)
	require.ErrorContains(t, err, "ParameterNotFound")
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}
