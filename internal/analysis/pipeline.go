package analysis

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/snapvocab/snapvocab/internal/config"
	"github.com/snapvocab/snapvocab/internal/kimi"
	"github.com/snapvocab/snapvocab/internal/models"
	"github.com/snapvocab/snapvocab/internal/store"
)

const sessionKey = "current_chat_id"

// Pipeline runs the full per-image workflow against the Kimi service:
// session acquisition, image encoding and upload, file registration,
// streamed analysis and JSON parsing. The chat session id is cached
// across runs; on any analysis failure the pipeline creates exactly one
// fresh session and retries once. That broad retry-with-new-session
// policy is inherited behavior, kept to recover from poisoned sessions.
type Pipeline struct {
	client *kimi.Client
	blobs  *store.BlobStore
	level  func() config.EnglishLevel
}

// NewPipeline wires the pipeline to its client, session blob store and
// English level source.
func NewPipeline(client *kimi.Client, blobs *store.BlobStore, level func() config.EnglishLevel) *Pipeline {
	return &Pipeline{client: client, blobs: blobs, level: level}
}

// Analyze implements Analyzer.
func (p *Pipeline) Analyze(ctx context.Context, image []byte, progress func(string)) (*models.AnalysisResult, error) {
	chatID, err := p.sessionID(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := EncodeImage(image)
	if err != nil {
		return nil, err
	}
	fileName := uuid.NewString() + encoded.Ext

	presigned, err := p.client.PreSignURL(ctx, fileName)
	if err != nil {
		return nil, err
	}

	if err := p.client.Upload(ctx, presigned.URL, encoded.Data); err != nil {
		return nil, err
	}
	slog.Debug("Image uploaded", "file", fileName, "bytes", len(encoded.Data))

	detail, err := p.client.RegisterFile(ctx, presigned.FileID, fileName, encoded.Width, encoded.Height)
	if err != nil {
		return nil, err
	}

	ref := kimi.NewFileRef(presigned.FileID, fileName, len(encoded.Data), detail)

	result, err := p.analyzeOnce(ctx, chatID, ref, progress)
	if err == nil {
		return result, nil
	}

	slog.Warn("Analysis failed, retrying once with a fresh session", "err", err)
	chatID, err = p.newSession(ctx)
	if err != nil {
		return nil, err
	}
	return p.analyzeOnce(ctx, chatID, ref, progress)
}

// analyzeOnce runs one streamed completion and parses its buffer.
func (p *Pipeline) analyzeOnce(ctx context.Context, chatID string, ref kimi.FileRef, progress func(string)) (*models.AnalysisResult, error) {
	stream, err := p.client.Completion(ctx, chatID, BuildPrompt(p.level()), []kimi.FileRef{ref})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var buffer string
	for {
		event, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if event.Event == "cmpl" && event.Text != "" {
			buffer += event.Text
			if progress != nil {
				progress(buffer)
			}
		}
	}

	if buffer == "" {
		return nil, ErrNoData
	}
	return ParseResult(buffer)
}

// sessionID returns the cached chat session id, creating one if needed.
func (p *Pipeline) sessionID(ctx context.Context) (string, error) {
	data, err := p.blobs.Get(sessionKey)
	if err != nil {
		slog.Error("Failed to read cached session id", "err", err)
	}
	if len(data) > 0 {
		return string(data), nil
	}
	return p.newSession(ctx)
}

// newSession creates and caches a fresh chat session.
func (p *Pipeline) newSession(ctx context.Context) (string, error) {
	id, err := p.client.CreateChat(ctx)
	if err != nil {
		return "", err
	}
	if err := p.blobs.Put(sessionKey, []byte(id)); err != nil {
		slog.Error("Failed to cache session id", "err", err)
	}
	slog.Info("Created analysis session", "chat_id", id)
	return id, nil
}
