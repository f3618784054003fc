// Package main is the entry point for the CKBFS faucet admin CLI.
// This tool provides administrative commands for managing products and access keys.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prn-tf/ckbfs-faucet/internal/auth"
	rediscache "github.com/prn-tf/ckbfs-faucet/internal/cache/redis"
	"github.com/prn-tf/ckbfs-faucet/internal/config"
	"github.com/prn-tf/ckbfs-faucet/internal/database"
	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/logging"
	"github.com/prn-tf/ckbfs-faucet/internal/pkg/crypto"
	"github.com/prn-tf/ckbfs-faucet/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// secretEnv supplies the secret to "sign" so it stays out of shell history.
const secretEnv = "FAUCET_SECRET_KEY"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command, args := os.Args[1], os.Args[2:]

	var err error
	switch command {
	case "version":
		fmt.Printf("CKBFS Faucet Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "product":
		err = runProduct(args)

	case "accesskey":
		err = runAccessKey(args)

	case "sign":
		err = runSign(args, os.Stdout)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// Environment
// =============================================================================

// env holds what the store-backed commands need.
type env struct {
	cfg      *config.Config
	identity *service.IdentityService
	close    func()
}

func openEnv(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(config.LoggingConfig{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		return nil, err
	}

	encryptor, err := crypto.NewEncryptorFromConfig(cfg.Auth.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("auth.encryption_key: %w", err)
	}

	db, repos, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	closers := []func(){func() { _ = db.Close() }}
	identityConfig := service.IdentityServiceConfig{}

	// Status changes must evict identities cached by running servers.
	if cfg.Cache.Backend == "redis" {
		client, err := rediscache.NewClient(ctx, cfg.Redis)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		identityConfig.Cache = rediscache.NewCache(client)
	}

	return &env{
		cfg:      cfg,
		identity: service.NewIdentityService(repos.Product, repos.AccessKey, encryptor, identityConfig, logger),
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the configuration file")
	return fs, configPath
}

// =============================================================================
// Products
// =============================================================================

func runProduct(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: faucet-admin product <create|list> [flags]")
	}

	ctx := context.Background()

	switch args[0] {
	case "create":
		fs, configPath := newFlagSet("product create")
		name := fs.String("name", "", "product name")
		quota := fs.Int64("h24-quota", -1, "claims per 24 hours (default from quota.default_h24_quota)")
		quotaPerType := fs.Int64("h24-quota-per-request-type", -1, "claims per request type per 24 hours (default from quota.default_h24_quota_per_request_type)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		e, err := openEnv(ctx, *configPath)
		if err != nil {
			return err
		}
		defer e.close()

		q := domain.QuotaConfig{
			H24Quota:               e.cfg.Quota.DefaultH24Quota,
			H24QuotaPerRequestType: e.cfg.Quota.DefaultH24QuotaPerRequestType,
		}
		if *quota >= 0 {
			q.H24Quota = *quota
		}
		if *quotaPerType >= 0 {
			q.H24QuotaPerRequestType = *quotaPerType
		}

		product, err := e.identity.CreateProduct(ctx, service.CreateProductInput{Name: *name, Quota: q})
		if err != nil {
			return err
		}
		fmt.Printf("Created product %q (id %d, h24_quota %d, h24_quota_per_request_type %d)\n",
			product.Name, product.ID, product.Quota.H24Quota, product.Quota.H24QuotaPerRequestType)
		return nil

	case "list":
		fs, configPath := newFlagSet("product list")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		e, err := openEnv(ctx, *configPath)
		if err != nil {
			return err
		}
		defer e.close()

		products, err := e.identity.ListProducts(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tH24_QUOTA\tH24_QUOTA_PER_REQUEST_TYPE\tCREATED")
		for _, p := range products {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n",
				p.ID, p.Name, p.Quota.H24Quota, p.Quota.H24QuotaPerRequestType, p.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown product command: %s", args[0])
	}
}

// =============================================================================
// Access keys
// =============================================================================

func runAccessKey(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: faucet-admin accesskey <create|list|activate|deactivate> [flags]")
	}

	ctx := context.Background()
	fs, configPath := newFlagSet("accesskey " + args[0])
	product := fs.String("product", "", "product name (create, list)")
	accessKeyID := fs.String("access-key-id", "", "access key id (activate, deactivate)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	e, err := openEnv(ctx, *configPath)
	if err != nil {
		return err
	}
	defer e.close()

	switch args[0] {
	case "create":
		out, err := e.identity.CreateAccessKey(ctx, *product)
		if err != nil {
			return err
		}
		fmt.Printf("Access Key ID: %s\n", out.AccessKeyID)
		fmt.Printf("Secret Key:    %s\n", out.SecretKey)
		fmt.Println("The secret key cannot be shown again.")
		return nil

	case "list":
		keys, err := e.identity.ListAccessKeys(ctx, *product)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ACCESS_KEY_ID\tSTATUS\tCREATED\tLAST_USED")
		for _, k := range keys {
			lastUsed := "-"
			if k.LastUsedAt != nil {
				lastUsed = k.LastUsedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.AccessKeyID, k.Status, k.CreatedAt.Format(time.RFC3339), lastUsed)
		}
		return tw.Flush()

	case "activate":
		if err := e.identity.ActivateAccessKey(ctx, *accessKeyID); err != nil {
			return err
		}
		fmt.Printf("Activated %s\n", *accessKeyID)
		return nil

	case "deactivate":
		if err := e.identity.DeactivateAccessKey(ctx, *accessKeyID); err != nil {
			return err
		}
		fmt.Printf("Deactivated %s\n", *accessKeyID)
		return nil

	default:
		return fmt.Errorf("unknown accesskey command: %s", args[0])
	}
}

// =============================================================================
// Signing
// =============================================================================

// runSign prints the headers a client must send for a request.
func runSign(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	accessKeyID := fs.String("access-key-id", "", "access key id")
	method := fs.String("method", http.MethodPost, "HTTP method")
	rawURL := fs.String("url", "", "request URL, e.g. https://faucet.example.com/api/v1/claim_events")
	body := fs.String("body", "", "request body")
	if err := fs.Parse(args); err != nil {
		return err
	}

	secret := os.Getenv(secretEnv)
	if secret == "" {
		return fmt.Errorf("%s must be set", secretEnv)
	}
	if *accessKeyID == "" || *rawURL == "" {
		return errors.New("--access-key-id and --url are required")
	}

	var reader io.Reader
	if *body != "" {
		reader = strings.NewReader(*body)
	}
	r, err := http.NewRequest(strings.ToUpper(*method), *rawURL, reader)
	if err != nil {
		return err
	}

	if err := auth.NewSigner(*accessKeyID, secret).Sign(r); err != nil {
		return err
	}

	for _, name := range []string{auth.DateHeader, auth.ContentSHA256Header, auth.AuthHeader} {
		fmt.Fprintf(w, "%s: %s\n", name, r.Header.Get(name))
	}
	return nil
}

func printUsage() {
	fmt.Println(`CKBFS Faucet Admin CLI

Usage:
  faucet-admin <command> [arguments]

Commands:
  product     Manage products (create, list)
  accesskey   Manage access keys (create, list, activate, deactivate)
  sign        Print signed headers for a request
  version     Print version information
  help        Show this help message

Examples:
  faucet-admin product create --name ckbfs --h24-quota 100
  faucet-admin accesskey create --product ckbfs
  faucet-admin accesskey deactivate --access-key-id TYkNNrK4wjmche2i6WBAvajZ
  FAUCET_SECRET_KEY=... faucet-admin sign --access-key-id TYkNNrK4wjmche2i6WBAvajZ \
      --url https://faucet.example.com/api/v1/claim_events --body '{"data":{...}}'

All store-backed commands accept --config <path>.`)
}
