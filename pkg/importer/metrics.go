package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name: "semtui_import_duration_seconds",
		Help: "Time spent importing a JSON document, by document kind.",
	}, []string{"kind"})

	importsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "semtui_imports_total",
		Help: "Imported documents by kind and outcome.",
	}, []string{"kind", "outcome"})

	importedColumns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "semtui_import_columns_total",
		Help: "Columns created by the importer.",
	}, []string{"kind"})

	importedCells = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "semtui_import_cells_total",
		Help: "Cells created by the importer.",
	}, []string{"kind"})

	skippedCells = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "semtui_import_skipped_cells_total",
		Help: "Cells skipped by the importer (unknown column or empty value).",
	}, []string{"kind"})
)
