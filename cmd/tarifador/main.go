package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tarifador/internal/classify"
	"tarifador/internal/config"
	"tarifador/internal/database"
	"tarifador/internal/pipeline"
	"tarifador/internal/resolve"
)

const defaultConfigPath = "/etc/tarifador/tarifador.yaml"

var (
	configPath string
	dryRun     bool
	batchSize  int
	leg        string
	fechas     []string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "tarifador",
		Short: "Tarificador de llamadas del SBC",
		Long:  `Importa los registros crudos de la central, los clasifica contra el registro de extensiones y asienta la tarificación en la plataforma de facturación.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Ruta del archivo de configuración (default: "+defaultConfigPath+")")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Simula la corrida sin escribir en la base de datos")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0, "Tamaño de lote (0 = valor de configuración)")
	rootCmd.PersistentFlags().StringVar(&leg, "leg", "", "Pierna del CDR a importar (default: valor de configuración)")

	var processCmd = &cobra.Command{
		Use:   "process",
		Short: "Procesa los registros crudos pendientes",
		Run:   runProcess,
	}
	processCmd.Flags().StringSliceVar(&fechas, "fecha", nil, "Limitar a fechas de creación YYYY-MM-DD (repetible)")

	var reanalyzeCmd = &cobra.Command{
		Use:   "reanalyze",
		Short: "Completa la ubicación de asientos sin empresa",
		Run:   runReanalyze,
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Muestra cuántos registros quedan pendientes",
		Run:   runStatus,
	}
	statusCmd.Flags().StringSliceVar(&fechas, "fecha", nil, "Limitar a fechas de creación YYYY-MM-DD (repetible)")

	rootCmd.AddCommand(processCmd, reanalyzeCmd, statusCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// entorno agrupa todo lo que un subcomando necesita ya conectado y cargado
type entorno struct {
	cfg        *config.Config
	conn       *database.Connection
	fuente     *database.Source
	libro      *database.Ledger
	procesador *pipeline.Procesador
}

func (e *entorno) cerrar() {
	if e.conn != nil {
		e.conn.Close()
	}
}

// preparar carga configuración, conecta y arma el pipeline completo
func preparar(ctx context.Context) (*entorno, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("TARIFADOR_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("error cargando configuración: %w", err)
	}

	if batchSize > 0 {
		cfg.Pipeline.BatchSize = batchSize
	}
	if leg != "" {
		cfg.Pipeline.Leg = leg
	}

	configurarLog(cfg.Log)

	conn, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("error conectando a base de datos: %w", err)
	}

	e := &entorno{cfg: cfg, conn: conn}

	registry := database.NewRegistry(conn)

	extensiones, err := registry.LoadExtensiones(ctx)
	if err != nil {
		e.cerrar()
		return nil, err
	}
	indice, err := registry.LoadNumeracionPropia(ctx)
	if err != nil {
		e.cerrar()
		return nil, err
	}
	tarifas, err := registry.LoadTarifas(ctx)
	if err != nil {
		e.cerrar()
		return nil, err
	}

	resolver := resolve.NewResolver(extensiones, resolve.Options{
		CodigoPais:        cfg.Numeros.CodigoPais,
		CodigoAreaDefecto: cfg.Numeros.CodigoAreaDefecto,
		Region:            cfg.Numeros.Region,
	})
	clasificador := classify.NewClasificador(indice, resolver.Conoce)

	convencion := database.ConvencionSigno{EspejadaNegativa: *cfg.Pipeline.MirrorNegative}

	libro, err := database.NewLedger(ctx, conn, cfg.Pipeline.LedgerTable)
	if err != nil {
		e.cerrar()
		return nil, err
	}
	fuente := database.NewSource(conn, cfg.Pipeline.SourceTable, cfg.Pipeline.LedgerTable, convencion)

	e.fuente = fuente
	e.libro = libro
	e.procesador = pipeline.NewProcesador(fuente, libro, clasificador, resolver,
		tarifas, convencion, pipeline.Options{
			BatchSize: cfg.Pipeline.BatchSize,
			Workers:   cfg.Pipeline.Workers,
			Leg:       cfg.Pipeline.Leg,
			DryRun:    dryRun,
		})

	logrus.WithFields(logrus.Fields{
		"extensiones": len(extensiones),
		"lote":        cfg.Pipeline.BatchSize,
		"pierna":      cfg.Pipeline.Leg,
	}).Info("pipeline listo")

	return e, nil
}

func configurarLog(cfg config.Log) {
	if nivel, err := logrus.ParseLevel(cfg.Level); err == nil {
		logrus.SetLevel(nivel)
	}
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

// contextoConSenales cancela el contexto ante SIGINT/SIGTERM. La cancelación
// corta entre lotes: el lote en vuelo termina de asentarse.
func contextoConSenales() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runProcess(cmd *cobra.Command, args []string) {
	ctx, cancel := contextoConSenales()
	defer cancel()

	corrida := uuid.New().String()[:8]
	log := logrus.WithField("corrida", corrida)

	e, err := preparar(ctx)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	defer e.cerrar()

	log.WithField("fechas", fechas).Info("procesamiento iniciado")

	inicio := time.Now()
	cont, err := e.procesador.Procesar(ctx, fechas)
	log = log.WithField("duracion", time.Since(inicio).Round(time.Millisecond))
	if err != nil {
		log.WithError(err).Error("procesamiento con errores")
	} else {
		log.Info("procesamiento terminado")
	}

	imprimirResumen(corrida, cont)
	if err != nil {
		os.Exit(1)
	}
}

func runReanalyze(cmd *cobra.Command, args []string) {
	ctx, cancel := contextoConSenales()
	defer cancel()

	corrida := uuid.New().String()[:8]
	log := logrus.WithField("corrida", corrida)

	e, err := preparar(ctx)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	defer e.cerrar()

	log.Info("reanálisis iniciado")

	inicio := time.Now()
	cont, err := e.procesador.Reanalizar(ctx)
	log = log.WithField("duracion", time.Since(inicio).Round(time.Millisecond))
	if err != nil {
		log.WithError(err).Error("reanálisis con errores")
	} else {
		log.Info("reanálisis terminado")
	}

	imprimirResumen(corrida, cont)
	if err != nil {
		os.Exit(1)
	}
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx, cancel := contextoConSenales()
	defer cancel()

	e, err := preparar(ctx)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	defer e.cerrar()

	pendientes, err := e.fuente.CountPendientes(ctx, fechas)
	if err != nil {
		logrus.Fatalf("%v", err)
	}

	fmt.Printf("Registros pendientes: %d\n", pendientes)
	if len(fechas) > 0 {
		fmt.Printf("Fechas: %v\n", fechas)
	}
}

func imprimirResumen(corrida string, cont pipeline.Contadores) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Corrida:\t%s\n", corrida)
	fmt.Fprintf(w, "Creados:\t%d\n", cont.Creados)
	if cont.Actualizados > 0 {
		fmt.Fprintf(w, "Actualizados:\t%d\n", cont.Actualizados)
	}
	fmt.Fprintf(w, "Duplicados:\t%d\n", cont.Duplicados)
	fmt.Fprintf(w, "Sin extensión:\t%d\n", cont.SinExtension)
	fmt.Fprintf(w, "Inválidos:\t%d\n", cont.Invalidos)
	fmt.Fprintf(w, "Errores:\t%d\n", cont.Errores)
	w.Flush()

	if dryRun {
		fmt.Println()
		fmt.Println("Simulacro: no se persistió ningún registro.")
	}
}
