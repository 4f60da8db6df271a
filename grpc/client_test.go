package grpc

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"discord-modbot/classifier"
	"discord-modbot/models"

	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// startModelServer serves DefaultClassifyMethod with the given handler.
func startModelServer(t *testing.T, handle func(text string) map[string]any) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := grpc.NewServer()
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: "modbot.classifier.v1.Classifier",
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: "Classify",
			Handler: func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				in := &structpb.Struct{}
				if err := dec(in); err != nil {
					return nil, err
				}
				return structpb.NewStruct(handle(in.GetFields()["text"].GetStringValue()))
			},
		}},
	}, struct{}{})

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func TestClassifierClientRoundTrip(t *testing.T) {
	addr := startModelServer(t, func(text string) map[string]any {
		if strings.Contains(text, "goal") {
			return map[string]any{"label": "Sports", "confidence": 0.93}
		}
		return map[string]any{"label": "World", "confidence": 0.51}
	})

	c, err := NewClassifierClient(addr, "", 5*time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClassifierClient: %v", err)
	}
	defer c.Close()

	res, err := c.Classify(context.Background(), "what a goal")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Label != "Sports" || res.Confidence != 0.93 {
		t.Errorf("result = %+v, want Sports/0.93", res)
	}
}

func TestClassifierClientLabelIDThroughTopic(t *testing.T) {
	addr := startModelServer(t, func(text string) map[string]any {
		return map[string]any{"label_id": 2, "confidence": 0.7}
	})

	c, err := NewClassifierClient(addr, DefaultClassifyMethod, 5*time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClassifierClient: %v", err)
	}
	defer c.Close()

	label, conf, err := classifier.NewTopic(c).Classify(context.Background(), "quarterly earnings")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != models.TopicBusiness || conf != 0.7 {
		t.Errorf("got %q/%v, want Business/0.7", label, conf)
	}
}
