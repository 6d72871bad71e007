package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/manmitra-core/server/internal/agent/gateway"
	"github.com/manmitra-core/server/internal/agent/graph/conversations"
	"github.com/manmitra-core/server/internal/agent/graph/prompts"
	"github.com/manmitra-core/server/internal/agent/model"
	"github.com/manmitra-core/server/internal/agent/safety"
	logx "github.com/manmitra-core/server/pkg/logger"
)

// CrisisDetector screens a message for crisis language.
type CrisisDetector interface {
	DetectCrisis(text string) model.CrisisResult
}

// TextGenerator produces reply text. The gateway implements it and never fails.
type TextGenerator interface {
	Generate(ctx context.Context, req gateway.Request) gateway.Outcome
}

// NewScreeningPreHandler stores the request in state for later nodes.
func NewScreeningPreHandler() func(context.Context, model.ChatInput, *model.AppState) (model.ChatInput, error) {
	return func(ctx context.Context, in model.ChatInput, s *model.AppState) (model.ChatInput, error) {
		s.Input = in
		s.Crisis = model.CrisisResult{}
		s.Prompt = ""
		s.Source = ""
		s.FallbackReason = ""
		return in, nil
	}
}

// NewScreeningNode runs crisis detection on the user's message.
func NewScreeningNode(det CrisisDetector) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ChatInput) (model.CrisisResult, error) {
		return det.DetectCrisis(in.Message), nil
	})
}

func NewScreeningPostHandler() func(context.Context, model.CrisisResult, *model.AppState) (model.CrisisResult, error) {
	return func(ctx context.Context, out model.CrisisResult, s *model.AppState) (model.CrisisResult, error) {
		s.Crisis = out
		if out.IsCrisis {
			logx.Warn().
				Str("request_id", s.Input.RequestID).
				Str("severity", string(out.Severity)).
				Int("matched", len(out.MatchedPatterns)).
				Msg("Crisis language detected")
		}
		return out, nil
	}
}

// NewCrisisCondition routes crises away from the model.
func NewCrisisCondition() func(context.Context, model.CrisisResult) (string, error) {
	return func(ctx context.Context, c model.CrisisResult) (string, error) {
		if c.IsCrisis {
			return NodeCrisisResponder, nil
		}
		return NodePromptAssembler, nil
	}
}

// NewCrisisResponderNode answers with the static support message for the severity.
func NewCrisisResponderNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, c model.CrisisResult) (*model.ChatResult, error) {
		severity := c.Severity
		return &model.ChatResult{
			Response:       safety.CrisisResponse(severity),
			Agent:          model.AgentCrisis,
			CrisisDetected: true,
			CrisisLevel:    &severity,
			Type:           model.ResultTypeCrisis,
			Metadata:       crisisMetadata(c),
		}, nil
	})
}

// NewPromptAssemblerNode renders the persona prompt from the request in state.
func NewPromptAssemblerNode(cb *conversations.ContextBuilder) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.CrisisResult) (string, error) {
		in, err := inputFromState(ctx)
		if err != nil {
			return "", err
		}
		p, err := prompts.RenderChat(ctx, cb.Lines(in.Topic, in.History), in.Message)
		if err != nil {
			return "", fmt.Errorf("render chat prompt: %w", err)
		}
		return p, nil
	})
}

func NewPromptAssemblerPostHandler() func(context.Context, string, *model.AppState) (string, error) {
	return func(ctx context.Context, out string, s *model.AppState) (string, error) {
		s.Prompt = out
		return out, nil
	}
}

// NewResponderNode sends the prompt through the gateway and shapes the reply.
func NewResponderNode(gen TextGenerator, temperature float32) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, p string) (*model.ChatResult, error) {
		in, err := inputFromState(ctx)
		if err != nil {
			return nil, err
		}

		out := gen.Generate(ctx, gateway.Request{
			Prompt:       p,
			Temperature:  temperature,
			FallbackText: in.Message,
		})

		err = compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			s.Source = string(out.Kind)
			s.FallbackReason = string(out.Reason)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		meta := map[string]any{"source": string(out.Kind)}
		if out.IsFallback() {
			meta["fallback_reason"] = string(out.Reason)
		}
		return &model.ChatResult{
			Response: cleanReply(out.Text),
			Agent:    model.AgentListener,
			Type:     model.ResultTypeChat,
			Metadata: meta,
		}, nil
	})
}

func inputFromState(ctx context.Context) (model.ChatInput, error) {
	var in model.ChatInput
	err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
		in = s.Input
		return nil
	})
	if err != nil {
		return model.ChatInput{}, fmt.Errorf("failed to access state: %w", err)
	}
	return in, nil
}
