package grpc

import (
	"context"
	"fmt"
	"time"

	"discord-modbot/classifier"
	"discord-modbot/models"

	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultClassifyMethod is the full RPC name served by the model servers.
const DefaultClassifyMethod = "/modbot.classifier.v1.Classifier/Classify"

// ClassifierClient calls a model server over gRPC. Requests and responses are
// google.protobuf.Struct messages: {text} in, {label, label_id, confidence} out.
type ClassifierClient struct {
	conn          *grpc.ClientConn
	serverAddress string
	method        string
	timeout       time.Duration
	logger        *zap.Logger
}

var _ classifier.Classifier = (*ClassifierClient)(nil)

// NewClassifierClient creates a client for the model server at serverAddress.
// The connection is established lazily on the first call.
func NewClassifierClient(serverAddress, method string, timeout time.Duration, logger *zap.Logger) (*ClassifierClient, error) {
	conn, err := grpc.NewClient(serverAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", serverAddress, err)
	}
	if method == "" {
		method = DefaultClassifyMethod
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &ClassifierClient{
		conn:          conn,
		serverAddress: serverAddress,
		method:        method,
		timeout:       timeout,
		logger:        logger,
	}, nil
}

// Close closes the gRPC connection.
func (c *ClassifierClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// GetServerAddress returns the model server address.
func (c *ClassifierClient) GetServerAddress() string {
	return c.serverAddress
}

// Classify sends one text to the model server.
func (c *ClassifierClient) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{"text": text})
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("build request: %w", err)
	}

	resp := &structpb.Struct{}
	start := time.Now()
	if err := c.conn.Invoke(ctx, c.method, req, resp); err != nil {
		c.logger.Warn("classifier call failed",
			zap.String("server", c.serverAddress),
			zap.String("method", c.method),
			zap.Error(err))
		return models.ClassificationResult{}, err
	}

	fields := resp.GetFields()
	label := fields["label"].GetStringValue()
	if label == "" {
		if id, ok := fields["label_id"]; ok {
			label = fmt.Sprintf("LABEL_%d", int(id.GetNumberValue()))
		}
	}
	result := models.ClassificationResult{
		Label:      label,
		Confidence: fields["confidence"].GetNumberValue(),
	}

	c.logger.Debug("classifier call finished",
		zap.String("server", c.serverAddress),
		zap.String("label", result.Label),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}
