// mailsift-cli classifies a pasted text, a single .eml file (or stdin), or a
// whole directory of .eml files in paged batches.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/adapters/filter"
	"github.com/mailsift/mailsift/internal/adapters/mailbox"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/core"
	"github.com/mailsift/mailsift/internal/factory"
	"github.com/mailsift/mailsift/internal/logging"
	"github.com/mailsift/mailsift/internal/textproc"
	"github.com/mailsift/mailsift/internal/validate"
	"github.com/mailsift/mailsift/internal/whitelist"
)

var (
	provider       = flag.String("provider", "artifact", "Engine provider (artifact, openai)")
	vectorizerPath = flag.String("vectorizer", "models/vectorizer.json", "Path to the vectorizer artifact")
	classifierPath = flag.String("classifier", "models/classifier.json", "Path to the classifier artifact")

	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4", "OpenAI model name")

	textInput = flag.String("text", "", "Classify this text directly")
	inputFile = flag.String("file", "", "Input .eml file (stdin if neither -text, -file nor -dir is given)")
	inputDir  = flag.String("dir", "", "Directory of .eml files to classify as batches")

	whitelistDomains = flag.String("whitelist", "", "Comma-separated list of whitelisted sender domains")
	verbose          = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog          = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile       = flag.Bool("config", false, "Load configuration from file instead of flags")
)

func main() {
	flag.Parse()

	logger, err := logging.NewConsole(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("failed to load configuration", zap.Error(err))
		}
		logger.Info("loaded configuration", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = configFromFlags()
	}

	engine, err := factory.NewEngineFactory(cfg, logger).CreateEngine()
	if err != nil {
		logger.Fatal("failed to create engine", zap.Error(err))
	}

	tp := cfg.GetTextProc()
	service := core.NewClassifierService(
		engine,
		validate.New(tp.MinLength, tp.MaxLength, tp.MaxRawSize),
		textproc.NewNormalizer(tp.PreviewLength),
		nil, // no verdict cache for one-shot runs
		whitelist.NewChecker(cfg.GetStringSlice("spam.whitelisted_domains"), logger),
		logger,
		false,
		0,
		cfg.GetBatch().Concurrency,
	)

	ctx := context.Background()
	switch {
	case *textInput != "":
		result, err := service.ClassifyText(ctx, *textInput)
		if err != nil {
			logger.Fatal("classification failed", zap.Error(err))
		}
		printResult(result)
	case *inputDir != "":
		classifyDir(ctx, service, cfg, logger)
	default:
		record, err := readRecord(logger)
		if err != nil {
			logger.Fatal("failed to read message", zap.Error(err))
		}
		result, err := service.ClassifyOne(ctx, record)
		if err != nil {
			logger.Fatal("classification failed", zap.Error(err))
		}
		fmt.Printf("From: %s\nSubject: %s\n", record.Sender, record.Subject)
		printResult(result)
	}
}

func classifyDir(ctx context.Context, service *core.ClassifierService, cfg *config.Config, logger *zap.Logger) {
	source := mailbox.NewDirSource(*inputDir, cfg.GetBatch().PageSize, logger)

	page, spamCount, failCount, total := 1, 0, 0, 0
	token := ""
	for {
		records, nextToken, err := source.Fetch(ctx, token)
		if err != nil {
			logger.Fatal("failed to fetch mailbox page", zap.Error(err))
		}
		if len(records) == 0 {
			break
		}

		fmt.Printf("=== Page %d (%d messages) ===\n", page, len(records))
		for i, item := range service.ClassifyBatch(ctx, records) {
			total++
			switch {
			case item.Err != nil:
				failCount++
				fmt.Printf("%3d. ERROR: %v\n", i+1, item.Err)
			case item.Result.Label == core.LabelSpam:
				spamCount++
				fmt.Printf("%3d. SPAM  (%.2f%%) %s\n", i+1, item.Result.Confidence*100, records[i].Subject)
			default:
				fmt.Printf("%3d. ok    (%.2f%%) %s\n", i+1, item.Result.Confidence*100, records[i].Subject)
			}
		}

		if nextToken == "" {
			break
		}
		token = nextToken
		page++
	}

	fmt.Printf("\n%d message(s): %d spam, %d failed\n", total, spamCount, failCount)
}

func readRecord(logger *zap.Logger) (*core.RawEmail, error) {
	var reader io.Reader
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
		logger.Info("reading message from file", zap.String("file", *inputFile))
	} else {
		reader = os.Stdin
		logger.Info("reading message from stdin")
	}

	msg, err := mail.ReadMessage(bufio.NewReader(reader))
	if err != nil {
		return nil, err
	}
	body, err := filter.ExtractText(msg)
	if err != nil {
		return nil, err
	}

	return &core.RawEmail{
		Subject:    msg.Header.Get("Subject"),
		Sender:     msg.Header.Get("From"),
		Body:       body,
		ReceivedAt: time.Now(),
		Headers:    map[string][]string(msg.Header),
	}, nil
}

func printResult(result *core.ClassificationResult) {
	fmt.Printf("\n=== Result ===\n")
	fmt.Printf("Label: %s\n", result.Label)
	fmt.Printf("Confidence: %.4f\n", result.Confidence)
	fmt.Printf("Engine: %s\n", result.Engine)
	if len(result.Links) > 0 {
		fmt.Printf("Links: %s\n", strings.Join(result.Links, ", "))
	}
	fmt.Printf("Preview: %s\n", result.DisplayText)
}

func configFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("engine.provider", *provider)
	switch *provider {
	case "artifact":
		v.Set("artifact.vectorizer_path", *vectorizerPath)
		v.Set("artifact.classifier_path", *classifierPath)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
	}

	if *whitelistDomains != "" {
		domains := strings.Split(*whitelistDomains, ",")
		for i := range domains {
			domains[i] = strings.TrimSpace(domains[i])
		}
		v.Set("spam.whitelisted_domains", domains)
	}

	return config.NewFromViper(v)
}
