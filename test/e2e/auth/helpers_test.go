package auth_test

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/fitra/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, account operations, and assertions.
 */

const (
	testImageName = "fitra-auth-test:latest"

	testPassword = "secret1"
	testName     = "A B"
)

// baseEnv is the container environment shared by every test.
var baseEnv = map[string]string{
	"AUTH_DATABASE_FILE": "/data/auth.db",
	"AUTH_PEPPER_FILE":   "/data/pepper",
	"AUTH_ISSUER":        "fitra-auth",
	"ENV":                "test",
	"LOG_LEVEL":          "info",
	"LOG_FORMAT":         "json",
	// Cookies travel over plain http in the container
	"COOKIE_SECURE": "false",
}

// relaxedLimits raises every rate limit so tests that make many rapid
// requests are not throttled.
var relaxedLimits = map[string]string{
	"RATELIMIT_SIGNUP_REQUESTS":  "1000",
	"RATELIMIT_SIGNUP_BURST":     "1000",
	"RATELIMIT_LOGIN_REQUESTS":   "1000",
	"RATELIMIT_LOGIN_BURST":      "1000",
	"RATELIMIT_SESSION_REQUESTS": "1000",
	"RATELIMIT_SESSION_BURST":    "1000",
}

// TestMain builds the Docker image once before all tests and removes it
// after they complete. Set FITRA_E2E=1 to run the suite.
func TestMain(m *testing.M) {
	if os.Getenv("FITRA_E2E") == "" {
		fmt.Fprintln(os.Stdout, "Skipping auth e2e tests, set FITRA_E2E=1 to run them")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

// setupAuthContainer starts the auth service with relaxed rate limits and
// returns the base URL.
func setupAuthContainer(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, relaxedLimits)
}

// setupAuthContainerWithDefaultRateLimits starts the auth service with the
// production rate limits. Only rate limit tests should use it.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, nil)
}

func startContainer(t *testing.T, extraEnv map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	env := maps.Clone(baseEnv)
	maps.Copy(env, extraEnv)

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStatusCodeMatcher(func(status int) bool { return status == http.StatusOK }).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// signupUser creates an account and returns its email. The client holds the
// session cookie issued on signup.
func signupUser(t *testing.T, client *authsdk.SDKClient, email string) string {
	t.Helper()

	resp, err := client.Signup(t.Context(), authsdk.SignupRequest{
		Email:    email,
		Password: testPassword,
		Name:     testName,
	})
	require.NoError(t, err, "Signup should succeed")
	require.Equal(t, "User created", resp.Message)
	require.NotEmpty(t, client.SessionToken(), "Signup should set the session cookie")

	return email
}

// assertStatus checks that err is an API error with the given status.
func assertStatus(t *testing.T, err error, status int, context string) {
	t.Helper()
	require.Error(t, err, context)
	require.True(t, authsdk.IsStatus(err, status), "%s - expected status %d, got: %v", context, status, err)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
