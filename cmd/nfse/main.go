package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"nfse/internal"
	"nfse/internal/config"
	"nfse/internal/console"
	"nfse/internal/pipeline"
	"nfse/internal/report"
	"nfse/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:           "nfse",
	Short:         "Automação de download e extração de NFS-e do portal nacional",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	runBaseDir string
	runStart   string
	runEnd     string
	runSets    string
	runLogFile bool
	runReport  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Baixa XML/PDF das notas do período e gera o relatório",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		sets, err := parseSets(runSets)
		if err != nil {
			return err
		}

		opts := pipeline.Options{
			BaseDir:    runBaseDir,
			StartDate:  runStart,
			EndDate:    runEnd,
			Sets:       sets,
			AutoReport: runReport,
		}
		// validate before opening anything inside the target folder
		if err := pipeline.Validate(opts); err != nil {
			return err
		}

		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		listeners := internal.Listeners{console.NewPrinter(), console.NewBar()}
		if runLogFile {
			fl, err := console.OpenFileLog(filepath.Join(runBaseDir, "automat.log"))
			if err != nil {
				return err
			}
			defer fl.Close()
			listeners = append(listeners, fl)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := pipeline.NewService(cfg, db, listeners)
		outcomes, err := svc.Run(ctx, opts)
		if err != nil {
			return err
		}

		for set, outcome := range outcomes {
			if outcome == internal.OutcomeFailed {
				return fmt.Errorf("%s terminou com falha", set)
			}
		}
		return nil
	},
}

var reportBaseDir string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Regera o relatório Excel a partir dos logs e XMLs existentes",
	RunE: func(_ *cobra.Command, _ []string) error {
		listeners := internal.Listeners{console.NewPrinter()}
		out, counts, err := report.Generate(reportBaseDir, listeners)
		if err != nil {
			return err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		listeners.Eventf("✓ Relatório: %s (%d notas)", out, total)
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lista as execuções anteriores",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("nenhuma execução registrada")
			return nil
		}
		fmt.Printf("%-20s %-10s %-23s %-10s %5s %5s %8s\n",
			"INÍCIO", "TIPO", "PERÍODO", "RESULTADO", "PÁG", "DOCS", "DURAÇÃO")
		for _, run := range runs {
			fmt.Printf("%-20s %-10s %s – %s %-10s %5d %5d %7dms\n",
				run.StartedAt, run.Set, run.PeriodStart, run.PeriodEnd,
				run.Outcome, run.Pages, run.Documents, run.DurationMs)
		}
		return nil
	},
}

func parseSets(value string) ([]internal.DocumentSet, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "recebidas":
		return []internal.DocumentSet{internal.SetReceived}, nil
	case "emitidas":
		return []internal.DocumentSet{internal.SetIssued}, nil
	case "ambas", "":
		return internal.AllSets(), nil
	}
	return nil, fmt.Errorf("tipo inválido %q: use recebidas, emitidas ou ambas", value)
}

func init() {
	runCmd.Flags().StringVar(&runBaseDir, "pasta", "", "pasta de destino dos arquivos (obrigatório)")
	runCmd.Flags().StringVar(&runStart, "inicio", "", "data inicial DD/MM/AAAA (obrigatório)")
	runCmd.Flags().StringVar(&runEnd, "fim", "", "data final DD/MM/AAAA (obrigatório)")
	runCmd.Flags().StringVar(&runSets, "tipo", "ambas", "recebidas|emitidas|ambas")
	runCmd.Flags().BoolVar(&runLogFile, "log", true, "gravar eventos em automat.log na pasta de destino")
	runCmd.Flags().BoolVar(&runReport, "relatorio", true, "gerar o relatório Excel ao final")
	_ = runCmd.MarkFlagRequired("pasta")
	_ = runCmd.MarkFlagRequired("inicio")
	_ = runCmd.MarkFlagRequired("fim")

	reportCmd.Flags().StringVar(&reportBaseDir, "pasta", "", "pasta com os logs e XMLs (obrigatório)")
	_ = reportCmd.MarkFlagRequired("pasta")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "máximo de execuções listadas")

	rootCmd.AddCommand(runCmd, reportCmd, historyCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
