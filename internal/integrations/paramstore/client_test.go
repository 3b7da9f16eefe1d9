package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

// fakeAPI records the last request and returns a canned response.
type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
	lastIn *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func TestGetParameter_DecryptsSecureString(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name:  strPtr("/zaptalk/bot-token"),
		Value: strPtr("123456:ABC"),
		Type:  types.ParameterTypeSecureString,
	}}}
	client, err := New(api)
	require.NoError(t, err)

	v, err := client.GetParameter(context.Background(), " /zaptalk/bot-token ")
	require.NoError(t, err)
	require.Equal(t, "123456:ABC", v)
	require.Equal(t, "/zaptalk/bot-token", *api.lastIn.Name)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestGetParameter_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("/zaptalk/gemini"), Value: nil}}}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "/zaptalk/gemini")
	require.ErrorContains(t, err, "missing value")
}

func TestGetParameter_ApiError(t *testing.T) {
	api := &fakeAPI{getErr: errors.New("ParameterNotFound")}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "/zaptalk/db-url")
	require.ErrorContains(t, err, `"/zaptalk/db-url"`)
	require.ErrorContains(t, err, "ParameterNotFound")
}

func TestGetParameter_ClientNotInitialized(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not initialized")
}

func TestGetParameter_EmptyName(t *testing.T) {
	api := &fakeAPI{}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
}

type fakeGetter struct {
	vals  map[string]string
	err   error
	names []string
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.names = append(f.names, name)
	if f.err != nil {
		return "", f.err
	}
	return f.vals[name], nil
}

func TestResolve_PlainValuePassesThrough(t *testing.T) {
	g := &fakeGetter{}
	v, err := Resolve(context.Background(), g, "123456:ABC")
	require.NoError(t, err)
	require.Equal(t, "123456:ABC", v)
	require.Empty(t, g.names)
}

func TestResolve_RawParameter(t *testing.T) {
	g := &fakeGetter{vals: map[string]string{"/zaptalk/bot-token": " 123456:ABC \n"}}
	v, err := Resolve(context.Background(), g, "ssm:/zaptalk/bot-token")
	require.NoError(t, err)
	require.Equal(t, "123456:ABC", v)
	require.Equal(t, []string{"/zaptalk/bot-token"}, g.names)
}

func TestResolve_JSONTokenParameter(t *testing.T) {
	g := &fakeGetter{vals: map[string]string{"/zaptalk/gemini": `{"token":"AIza-from-json"}`}}
	v, err := Resolve(context.Background(), g, "ssm:/zaptalk/gemini")
	require.NoError(t, err)
	require.Equal(t, "AIza-from-json", v)
}

func TestResolve_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Resolve(ctx, &fakeGetter{vals: map[string]string{"/p": `{"other":"value"}`}}, "ssm:/p")
	require.ErrorContains(t, err, "empty token")

	_, err = Resolve(ctx, &fakeGetter{vals: map[string]string{"/p": `{"broken`}}, "ssm:/p")
	require.ErrorContains(t, err, "unmarshal")

	_, err = Resolve(ctx, &fakeGetter{vals: map[string]string{}}, "ssm:/p")
	require.ErrorContains(t, err, "is empty")

	_, err = Resolve(ctx, &fakeGetter{err: errors.New("ssm unavailable")}, "ssm:/p")
	require.ErrorContains(t, err, "ssm unavailable")

	_, err = Resolve(ctx, &fakeGetter{}, "ssm:  ")
	require.ErrorContains(t, err, "names no parameter")

	_, err = Resolve(ctx, nil, "ssm:/p")
	require.Error(t, err)
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}
