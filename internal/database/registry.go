package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tarifador/internal/billing"
	"tarifador/internal/classify"
)

// Registry hace las lecturas masivas de los registros de solo lectura:
// numeración propia, extensiones con su ubicación y tablas de precio, y
// tarifas. Todo se carga una sola vez antes de procesar el primer lote.
type Registry struct {
	db *sql.DB
}

// NewRegistry crea el lector de registros
func NewRegistry(conn *Connection) *Registry {
	return &Registry{db: conn.DB}
}

// LoadExtensiones carga el registro completo de extensiones con su ubicación
// organizacional y las tablas de precio de empresa y organización. Un error
// acá es fatal: sin el registro no hay clasificación posible.
func (r *Registry) LoadExtensiones(ctx context.Context) ([]Extension, error) {
	query := `
		SELECT e.id, e.numero, e.organizacion_id, e.empresa_id,
		       e.centro_costo_id, e.sector_id,
		       emp.tabla_precio_id, org.tabla_precio_id
		FROM tarifador_extensiones e
		JOIN tarifador_empresas emp ON emp.id = e.empresa_id
		JOIN tarifador_organizaciones org ON org.id = e.organizacion_id
		ORDER BY e.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error consultando extensiones: %w", err)
	}
	defer rows.Close()

	var extensiones []Extension
	for rows.Next() {
		var e Extension
		if err := rows.Scan(
			&e.ID, &e.Numero, &e.OrganizacionID, &e.EmpresaID,
			&e.CentroCostoID, &e.SectorID,
			&e.TablaPrecioEmpresa, &e.TablaPrecioOrganizacion,
		); err != nil {
			return nil, fmt.Errorf("error escaneando extensión: %w", err)
		}
		extensiones = append(extensiones, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterando extensiones: %w", err)
	}

	return extensiones, nil
}

// LoadNumeracionPropia carga los números propios explícitos y los rangos.
// La tabla de números tolera dos layouts físicos: (codigo_area, numero) o
// la columna única numero_completo del esquema viejo. Tablas ausentes
// degradan a conjuntos vacíos; la ausencia total se advierte al operador.
func (r *Registry) LoadNumeracionPropia(ctx context.Context) (*classify.IndiceNumeracion, error) {
	numeros, errNum := r.cargarNumerosPropios(ctx)
	if errNum != nil {
		logrus.WithError(errNum).Warn("tabla de números propios ilegible, se asume vacía")
	}

	rangos, errRan := r.cargarRangosPropios(ctx)
	if errRan != nil {
		logrus.WithError(errRan).Warn("tabla de rangos propios ilegible, se asume vacía")
	}

	idx := classify.NewIndiceNumeracion(numeros, rangos)
	if idx.Vacio() {
		logrus.Warn("sin numeración propia configurada: el clasificador de respaldo no podrá reconocer números del inventario")
	}
	return idx, nil
}

func (r *Registry) cargarNumerosPropios(ctx context.Context) ([]string, error) {
	// Layout preferido: código de área + número local
	rows, err := r.db.QueryContext(ctx,
		`SELECT codigo_area, numero FROM tarifador_numeros_propios`)
	if err == nil {
		defer rows.Close()
		var numeros []string
		for rows.Next() {
			var area, numero string
			if err := rows.Scan(&area, &numero); err != nil {
				return nil, fmt.Errorf("error escaneando número propio: %w", err)
			}
			numeros = append(numeros, area+numero)
		}
		return numeros, rows.Err()
	}

	// Layout viejo: columna única con el número completo
	rows, err = r.db.QueryContext(ctx,
		`SELECT numero_completo FROM tarifador_numeros_propios`)
	if err != nil {
		return nil, fmt.Errorf("error consultando números propios: %w", err)
	}
	defer rows.Close()

	var numeros []string
	for rows.Next() {
		var numero string
		if err := rows.Scan(&numero); err != nil {
			return nil, fmt.Errorf("error escaneando número propio: %w", err)
		}
		numeros = append(numeros, numero)
	}
	return numeros, rows.Err()
}

func (r *Registry) cargarRangosPropios(ctx context.Context) ([]classify.RangoNumeracion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT codigo_area, inicio, fin FROM tarifador_rangos_propios`)
	if err != nil {
		return nil, fmt.Errorf("error consultando rangos propios: %w", err)
	}
	defer rows.Close()

	var rangos []classify.RangoNumeracion
	for rows.Next() {
		var rango classify.RangoNumeracion
		if err := rows.Scan(&rango.CodigoArea, &rango.Inicio, &rango.Fin); err != nil {
			return nil, fmt.Errorf("error escaneando rango propio: %w", err)
		}
		rangos = append(rangos, rango)
	}
	return rangos, rows.Err()
}

// LoadTarifas carga la tabla de tarifas completa. Un error acá es fatal.
func (r *Registry) LoadTarifas(ctx context.Context) (*billing.IndiceTarifas, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tabla_precio_id, tipo_llamada, tarifa FROM tarifador_tarifas`)
	if err != nil {
		return nil, fmt.Errorf("error consultando tarifas: %w", err)
	}
	defer rows.Close()

	var filas []billing.TarifaFila
	for rows.Next() {
		var f billing.TarifaFila
		var tarifa string
		if err := rows.Scan(&f.TablaPrecio, &f.TipoLlamada, &tarifa); err != nil {
			return nil, fmt.Errorf("error escaneando tarifa: %w", err)
		}
		f.Tarifa, err = decimal.NewFromString(tarifa)
		if err != nil {
			return nil, fmt.Errorf("tarifa inválida %q para tabla %d tipo %d: %w",
				tarifa, f.TablaPrecio, f.TipoLlamada, err)
		}
		filas = append(filas, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterando tarifas: %w", err)
	}

	return billing.NewIndiceTarifas(filas), nil
}
