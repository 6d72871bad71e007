package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/manmitra-core/server/internal/agent/graph/conversations"
	"github.com/manmitra-core/server/internal/agent/graph/nodes"
	"github.com/manmitra-core/server/internal/agent/graph/observers"
	"github.com/manmitra-core/server/internal/agent/model"
	logx "github.com/manmitra-core/server/pkg/logger"
)

const (
	defaultChatTemperature = 0.7
	maxRunSteps            = 10
)

// Runner executes the compiled chat graph.
type Runner interface {
	Invoke(ctx context.Context, in model.ChatInput) (*model.ChatResult, error)
}

// Config holds everything needed to build the chat graph.
type Config struct {
	Detector     nodes.CrisisDetector
	Generator    nodes.TextGenerator
	Conversation model.ConversationConfig
}

// GraphBuilder handles the construction of the chat graph
type GraphBuilder struct {
	config Config
	graph  *compose.Graph[model.ChatInput, *model.ChatResult]
}

type graphRunner struct {
	runnable compose.Runnable[model.ChatInput, *model.ChatResult]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.ChatInput) (*model.ChatResult, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("chat graph returned no result")
	}
	return out, nil
}

// BuildChatGraph compiles the screening, crisis and reply pipeline.
func BuildChatGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Detector == nil {
		return nil, fmt.Errorf("crisis detector is nil")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("text generator is nil")
	}

	builder := &GraphBuilder{
		config: cfg,
		graph: compose.NewGraph[model.ChatInput, *model.ChatResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}
	return &graphRunner{runnable: runnable}, nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	temperature := b.config.Conversation.ChatTemperature
	if temperature <= 0 {
		temperature = defaultChatTemperature
	}

	steps := []error{
		b.graph.AddLambdaNode(nodes.NodeScreening,
			nodes.NewScreeningNode(b.config.Detector),
			compose.WithStatePreHandler(nodes.NewScreeningPreHandler()),
			compose.WithStatePostHandler(nodes.NewScreeningPostHandler()),
		),
		b.graph.AddLambdaNode(nodes.NodeCrisisResponder,
			nodes.NewCrisisResponderNode(),
		),
		b.graph.AddLambdaNode(nodes.NodePromptAssembler,
			nodes.NewPromptAssemblerNode(conversations.NewContextBuilder(b.config.Conversation)),
			compose.WithStatePostHandler(nodes.NewPromptAssemblerPostHandler()),
		),
		b.graph.AddLambdaNode(nodes.NodeResponder,
			nodes.NewResponderNode(b.config.Generator, temperature),
		),
	}
	for _, err := range steps {
		if err != nil {
			logx.Error().Err(err).Msg("Error adding graph node")
			return fmt.Errorf("error adding graph node: %w", err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeScreening},
		{nodes.NodeCrisisResponder, compose.END},
		{nodes.NodePromptAssembler, nodes.NodeResponder},
		{nodes.NodeResponder, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	crisisBranch := compose.NewGraphBranch(
		nodes.NewCrisisCondition(),
		map[string]bool{
			nodes.NodeCrisisResponder: true,
			nodes.NodePromptAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeScreening, crisisBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding crisis branch")
		return fmt.Errorf("error adding crisis branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.ChatInput, *model.ChatResult], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Chat graph compiled successfully")
	return runnable, nil
}
