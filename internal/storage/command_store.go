package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"youtrack_helper/internal/model"
)

// CommandStore keeps the commands sent for a build, in the order they were
// sent.
type CommandStore interface {
	Commands(ctx context.Context, site, build string) ([]model.Command, error)
	Append(ctx context.Context, site, build string, commands ...model.Command) error
}

// S3CommandStore implements CommandStore using AWS S3
type S3CommandStore struct {
	client     *s3.Client
	bucketName string
	mu         sync.Mutex // serializes read-modify-write of one object
}

type commandData struct {
	Commands []model.Command `json:"commands"`
}

// NewS3CommandStore creates a new S3CommandStore instance
func NewS3CommandStore(client *s3.Client, bucketName string) *S3CommandStore {
	return &S3CommandStore{
		client:     client,
		bucketName: bucketName,
	}
}

// Commands returns the commands recorded for build on site. A build with no
// record yields an empty list.
func (s *S3CommandStore) Commands(ctx context.Context, site, build string) ([]model.Command, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(commandKey(site, build)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return []model.Command{}, nil
		}
		return nil, fmt.Errorf("failed to get commands from S3: %w", err)
	}
	defer result.Body.Close()

	var data commandData
	if err := json.NewDecoder(result.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode command data: %w", err)
	}
	if data.Commands == nil {
		data.Commands = []model.Command{}
	}
	return data.Commands, nil
}

// Append adds commands to the record of build on site
func (s *S3CommandStore) Append(ctx context.Context, site, build string, commands ...model.Command) error {
	if len(commands) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.Commands(ctx, site, build)
	if err != nil {
		return err
	}

	data := commandData{Commands: append(existing, commands...)}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal command data: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(commandKey(site, build)),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to store commands in S3: %w", err)
	}

	return nil
}

// commandKey generates the S3 key for the commands of a build
func commandKey(site, build string) string {
	return fmt.Sprintf("commands/%s/%s.json", url.PathEscape(site), url.PathEscape(build))
}

// MemoryCommandStore keeps commands in process memory
type MemoryCommandStore struct {
	mu       sync.Mutex
	commands map[string][]model.Command
}

// NewMemoryCommandStore creates an empty MemoryCommandStore
func NewMemoryCommandStore() *MemoryCommandStore {
	return &MemoryCommandStore{commands: make(map[string][]model.Command)}
}

// Commands returns a copy of the commands recorded for build on site
func (m *MemoryCommandStore) Commands(_ context.Context, site, build string) ([]model.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Command{}, m.commands[commandKey(site, build)]...), nil
}

// Append adds commands to the record of build on site
func (m *MemoryCommandStore) Append(_ context.Context, site, build string, commands ...model.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := commandKey(site, build)
	m.commands[key] = append(m.commands[key], commands...)
	return nil
}
