// Package storagetest starts shared database containers for storage tests.
package storagetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	surrealOnce      sync.Once
	surrealContainer *Container
	surrealError     error

	postgresOnce      sync.Once
	postgresContainer *Container
	postgresError     error
)

// Container wraps a running testcontainers instance.
type Container struct {
	container testcontainers.Container
	host      string
	port      string
}

// Host returns the mapped host.
func (c *Container) Host() string { return c.host }

// Port returns the mapped port.
func (c *Container) Port() string { return c.port }

// Cleanup terminates the container. Call from TestMain if needed.
func (c *Container) Cleanup() {
	if c != nil && c.container != nil {
		c.container.Terminate(context.Background())
	}
}

func start(ctx context.Context, req testcontainers.ContainerRequest, port string) (*Container, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start %s container: %w", req.Image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("get %s host: %w", req.Image, err)
	}

	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("get %s port: %w", req.Image, err)
	}

	return &Container{container: container, host: host, port: mapped.Port()}, nil
}

// StartSurrealDB starts a SurrealDB container shared by every test in the
// process. Tests are skipped under -short.
func StartSurrealDB(t *testing.T) *Container {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping SurrealDB container test in short mode")
	}

	surrealOnce.Do(func() {
		surrealContainer, surrealError = start(context.Background(), testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--user", "root", "--pass", "root"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("8000/tcp"),
				wait.ForLog("Started web server"),
			).WithDeadline(60 * time.Second),
		}, "8000/tcp")
	})

	if surrealError != nil {
		t.Fatalf("SurrealDB container failed: %v", surrealError)
	}
	return surrealContainer
}

// SurrealAddress returns the WebSocket RPC address of c.
func (c *Container) SurrealAddress() string {
	return fmt.Sprintf("ws://%s:%s/rpc", c.host, c.port)
}

// StartPostgres starts a Postgres container shared by every test in the
// process. Tests are skipped under -short.
func StartPostgres(t *testing.T) *Container {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres container test in short mode")
	}

	postgresOnce.Do(func() {
		postgresContainer, postgresError = start(context.Background(), testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "navcheck",
				"POSTGRES_PASSWORD": "navcheck",
				"POSTGRES_DB":       "navcheck",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(60 * time.Second),
		}, "5432/tcp")
	})

	if postgresError != nil {
		t.Fatalf("Postgres container failed: %v", postgresError)
	}
	return postgresContainer
}

// PostgresURL returns a connection URL for database on c.
func (c *Container) PostgresURL(database string) string {
	return fmt.Sprintf("postgres://navcheck:navcheck@%s:%s/%s?sslmode=disable", c.host, c.port, database)
}

// DatabaseName derives a unique, identifier-safe database name from the
// test name.
func DatabaseName(t *testing.T) string {
	sanitized := strings.NewReplacer("/", "_", " ", "_", "-", "_").Replace(strings.ToLower(t.Name()))
	if len(sanitized) > 40 {
		sanitized = sanitized[:40]
	}
	return fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)
}
