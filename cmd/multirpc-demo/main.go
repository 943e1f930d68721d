// Command multirpc-demo wires the façade together from a YAML config
// file and drives one demo call against it — a read by default, or a
// transaction when -function names a state-mutating method. It is the
// binary's thin assembly layer; all of the actual dispatch logic lives
// in the facade, viewcall, and txpipeline packages.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/rpcmux/multirpc/config"
	"github.com/rpcmux/multirpc/facade"
	"github.com/rpcmux/multirpc/internal/gasestimator"
	"github.com/rpcmux/multirpc/internal/healthcheck"
	"github.com/rpcmux/multirpc/internal/observer"
	"github.com/rpcmux/multirpc/internal/viewcall"
	"github.com/rpcmux/multirpc/signer"
)

func main() {
	app := &cli.App{
		Name:  "multirpc-demo",
		Usage: "drive a contract function through the multi-endpoint rpc façade",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the façade config file"},
			&cli.StringFlag{Name: "function", Required: true, Usage: "contract function name to call"},
			&cli.StringFlag{Name: "private-key", EnvVars: []string{"MULTIRPC_PRIVATE_KEY"}, Usage: "hex private key for transaction functions"},
			&cli.StringFlag{Name: "mnemonic", EnvVars: []string{"MULTIRPC_MNEMONIC"}, Usage: "BIP39 mnemonic for transaction functions"},
			&cli.StringFlag{Name: "hd-path", Value: "m/44'/60'/0'/0/0", Usage: "HD derivation path used with -mnemonic"},
			&cli.BoolFlag{Name: "dry-run", Usage: "describe the transaction draft instead of broadcasting it"},
			&cli.BoolFlag{Name: "wait-for-receipt", Usage: "block until the transaction is confirmed"},
			&cli.IntFlag{Name: "metrics-port", Value: 0, Usage: "serve Prometheus metrics on this port (0 disables)"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "multirpc-demo:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	logger := config.InitLogger(cfg.Logging)

	abiBytes, err := os.ReadFile(cfg.ContractABIPath)
	if err != nil {
		return fmt.Errorf("reading contract abi: %w", err)
	}

	registry := prometheus.NewRegistry()
	promObserver := observer.NewPrometheusObserver(registry)
	dispatchChecker := healthcheck.NewDispatchChecker(5 * time.Minute)
	obs := observer.Multi{promObserver, dispatchChecker}

	if port := c.Int("metrics-port"); port > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := dispatchChecker.Check(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		go func() {
			addr := fmt.Sprintf(":%d", port)
			logger.Info().Str("addr", addr).Msg("serving metrics and health endpoints")
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics server exited")
			}
		}()
	}

	ctx := context.Background()
	viewPolicy, err := viewcall.ParsePolicy(cfg.ViewPolicy)
	if err != nil {
		return err
	}

	f, err := facade.New(ctx, facade.Config{
		Roles:              cfg.RoleConfigs(),
		ContractAddress:    common.HexToAddress(cfg.ContractAddress),
		ContractABIJSON:    string(abiBytes),
		ViewPolicy:         viewPolicy,
		MulticallAddress:   common.HexToAddress(cfg.MulticallAddress),
		IsProofOfAuthority: cfg.IsProofOfAuthority,
		GasEstimation:      cfg.GasEstimatorConfig(),
		DefaultGasLimit:    cfg.GasLimit,
		GasCeilingGWei:     cfg.GasUpperBoundGWei,
		WaitForReceiptSecs: cfg.WaitForReceiptSecs,
		EnableGasEstimate:  cfg.EnableGasEstimate,
		Observer:           obs,
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("setting up facade: %w", err)
	}
	defer f.Close()

	if privKey := c.String("private-key"); privKey != "" || c.String("mnemonic") != "" {
		account, err := signer.CreateSigner(privKey, c.String("mnemonic"), c.String("hd-path"))
		if err != nil {
			return fmt.Errorf("creating signer: %w", err)
		}
		f.SetAccount(account)
	}

	descriptor, err := f.Function(c.String("function"))
	if err != nil {
		return err
	}

	switch descriptor.Kind {
	case facade.FunctionView:
		pc, err := f.Fn(descriptor.Name)
		if err != nil {
			return err
		}
		values, err := pc.Call(ctx, facade.CallOptions{})
		if err != nil {
			return fmt.Errorf("calling %s: %w", descriptor.Name, err)
		}
		logger.Info().Str("function", descriptor.Name).Interface("result", values).Msg("view call complete")
	default:
		pc, err := f.Fn(descriptor.Name)
		if err != nil {
			return err
		}
		sendOpts := facade.SendOptions{
			Priority:       gasestimator.PriorityLow,
			WaitForReceipt: c.Bool("wait-for-receipt"),
			ReceiptTimeout: time.Duration(cfg.WaitForReceiptSecs) * time.Second,
		}
		if c.Bool("dry-run") {
			description, err := pc.DryRun(ctx, sendOpts)
			if err != nil {
				return fmt.Errorf("dry run of %s: %w", descriptor.Name, err)
			}
			fmt.Println(description)
			return nil
		}
		txHash, receipt, err := pc.Send(ctx, sendOpts)
		if err != nil {
			return fmt.Errorf("sending %s: %w", descriptor.Name, err)
		}
		if receipt != nil {
			logger.Info().Str("function", descriptor.Name).Str("tx_hash", txHash.Hex()).Uint64("status", receipt.Status).Msg("transaction confirmed")
		} else {
			logger.Info().Str("function", descriptor.Name).Str("tx_hash", txHash.Hex()).Msg("transaction broadcast")
		}
	}
	return nil
}
