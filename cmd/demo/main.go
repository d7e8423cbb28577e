// Command demo exercises the library's public surface end to end: config
// resolution, then, depending on flags, a single generateContent call, a
// streamed call, or a short chat session. It is not a production entry point, just a
// smoke test a developer can point at a real API key.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"go-genai-core/internal/authcoordinator"
	"go-genai-core/internal/chatsession"
	"go-genai-core/internal/config"
	"go-genai-core/internal/coordinator"
	"go-genai-core/internal/events"
	"go-genai-core/internal/httpclient"
	"go-genai-core/internal/logging"
	"go-genai-core/internal/streaming"
)

func main() {
	model := flag.String("model", "", "model name override (defaults to the resolved config default)")
	prompt := flag.String("prompt", "Say hello in one short sentence.", "prompt text for the generate and stream calls")
	stream := flag.Bool("stream", false, "use stream_generate instead of generate")
	chat := flag.Bool("chat", false, "run a two-turn chat session instead of a single call")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg := config.Load()
	if *debug {
		cfg.Debug = true
	}
	if err := logging.Setup(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "failed to configure logging:", err)
		os.Exit(1)
	}

	if *model == "" {
		*model = cfg.DefaultModel
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auth := authcoordinator.New(cfg.Base)

	hub := events.NewHub()
	auth.SetEvents(hub)
	unsubscribe := hub.Subscribe(events.TopicCredentialRotated, func(_ context.Context, ev events.Event) {
		log.WithField("strategy", ev.Payload).Info("credential rotated")
	})
	defer unsubscribe()

	if cfg.Base.VertexAI.ServiceAccountPath != "" {
		stopWatch, err := config.WatchServiceAccountFile(ctx, cfg.Base.VertexAI.ServiceAccountPath, auth)
		if err != nil {
			log.WithError(err).Warn("failed to watch service account file")
		} else {
			defer stopWatch()
		}
	}

	httpClient := httpclient.New(httpclient.Options{})
	coord := coordinator.New(auth, httpClient, cfg.DefaultAuth)
	coord.SetEvents(hub)
	unsubscribeFallback := hub.Subscribe(events.TopicModelFallback, func(_ context.Context, ev events.Event) {
		log.WithField("fallback", ev.Payload).Info("retried generate under fallback model")
	})
	defer unsubscribeFallback()

	switch {
	case *chat:
		runChat(ctx, coord, *model, *prompt)
	case *stream:
		runStream(ctx, coord, *model, *prompt)
	default:
		runGenerate(ctx, coord, *model, *prompt)
	}
}

func runGenerate(ctx context.Context, coord *coordinator.Coordinator, model, prompt string) {
	resp, err := coord.Generate(ctx, prompt, model, nil, coordinator.Options{})
	if err != nil {
		log.WithError(err).Fatal("generate failed")
	}
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			fmt.Println(part.Text)
		}
	}
}

func runStream(ctx context.Context, coord *coordinator.Coordinator, model, prompt string) {
	_, eventsCh, unsubscribe, err := coord.StreamGenerate(ctx, prompt, model, nil, coordinator.Options{})
	if err != nil {
		log.WithError(err).Fatal("stream_generate failed")
	}
	defer unsubscribe()

	for ev := range eventsCh {
		switch ev.Kind {
		case streaming.EventData:
			if text, ok := extractText(ev.Data); ok {
				fmt.Print(text)
			}
		case streaming.EventDone:
			fmt.Println()
			return
		case streaming.EventErrored:
			log.WithError(ev.Err).Fatal("stream ended in error")
		case streaming.EventStopped, streaming.EventOverflow:
			return
		}
	}
}

func runChat(ctx context.Context, coord *coordinator.Coordinator, model, prompt string) {
	session := chatsession.New(coord, model, nil, coordinator.Options{})

	resp, err := session.Send(ctx, prompt)
	if err != nil {
		log.WithError(err).Fatal("chat turn 1 failed")
	}
	printResponse(resp)

	time.Sleep(50 * time.Millisecond) // give the terminal output a beat to flush before the second turn
	resp, err = session.Send(ctx, "Can you say it more formally?")
	if err != nil {
		log.WithError(err).Fatal("chat turn 2 failed")
	}
	printResponse(resp)
}

func printResponse(resp *coordinator.GenerateResponse) {
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			fmt.Println(part.Text)
		}
	}
}

func extractText(data map[string]any) (string, bool) {
	candidates, ok := data["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return "", false
	}
	candidate, ok := candidates[0].(map[string]any)
	if !ok {
		return "", false
	}
	content, ok := candidate["content"].(map[string]any)
	if !ok {
		return "", false
	}
	parts, ok := content["parts"].([]any)
	if !ok || len(parts) == 0 {
		return "", false
	}
	part, ok := parts[0].(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := part["text"].(string)
	return text, ok
}
