package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// columna describe una columna física del libro según information_schema
type columna struct {
	Nombre       string
	AceptaNula   bool
	TipoDato     string
	TieneDefault bool
}

// Ledger escribe los asientos de tarificación. El esquema físico del libro
// varía entre instalaciones de la plataforma, así que el mapa de columnas se
// lee una sola vez al arrancar y los INSERT se arman solo con las columnas
// que la tabla realmente tiene. Las columnas NOT NULL sin default que el
// asiento no trae reciben un relleno tipado para que el INSERT no falle.
type Ledger struct {
	db       *sql.DB
	tabla    string
	columnas map[string]columna
}

// NewLedger abre el libro e introspecta su esquema. Una tabla inexistente es
// un error fatal de configuración, no algo que se pueda degradar.
func NewLedger(ctx context.Context, conn *Connection, tabla string) (*Ledger, error) {
	rows, err := conn.DB.QueryContext(ctx, `
		SELECT COLUMN_NAME, IS_NULLABLE, DATA_TYPE, COLUMN_DEFAULT
		FROM information_schema.columns
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
	`, tabla)
	if err != nil {
		return nil, fmt.Errorf("error introspectando el libro %s: %w", tabla, err)
	}
	defer rows.Close()

	columnas := make(map[string]columna)
	for rows.Next() {
		var c columna
		var aceptaNula string
		var valorDefault sql.NullString
		if err := rows.Scan(&c.Nombre, &aceptaNula, &c.TipoDato, &valorDefault); err != nil {
			return nil, fmt.Errorf("error escaneando columna del libro: %w", err)
		}
		c.AceptaNula = strings.EqualFold(aceptaNula, "YES")
		c.TieneDefault = valorDefault.Valid
		columnas[c.Nombre] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterando columnas del libro: %w", err)
	}

	if len(columnas) == 0 {
		return nil, fmt.Errorf("el libro %s no existe en la base de datos", tabla)
	}

	logrus.WithFields(logrus.Fields{
		"tabla":    tabla,
		"columnas": len(columnas),
	}).Debug("esquema del libro introspectado")

	return &Ledger{db: conn.DB, tabla: tabla, columnas: columnas}, nil
}

// FilterExisting devuelve el subconjunto de ids que ya tienen asiento
func (l *Ledger) FilterExisting(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	existentes := make(map[int64]struct{})
	if len(ids) == 0 {
		return existentes, nil
	}

	marcas := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id IN (%s)`, l.tabla, marcas)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error verificando asientos existentes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error escaneando asiento existente: %w", err)
		}
		existentes[id] = struct{}{}
	}
	return existentes, rows.Err()
}

// Insert asienta una fila. Solo entran las columnas que la tabla tiene; las
// NOT NULL sin default que falten se rellenan según su tipo.
func (l *Ledger) Insert(ctx context.Context, fila Fila) error {
	nombres, valores := l.prepararInsert(fila)

	marcas := strings.TrimSuffix(strings.Repeat("?, ", len(nombres)), ", ")
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		l.tabla, strings.Join(nombres, ", "), marcas)

	if _, err := l.db.ExecContext(ctx, query, valores...); err != nil {
		return fmt.Errorf("error asentando fila %v: %w", fila["id"], err)
	}
	return nil
}

// prepararInsert resuelve la fila lógica contra el esquema físico. El orden
// de columnas es estable para que la sentencia sea cacheable.
func (l *Ledger) prepararInsert(fila Fila) ([]string, []any) {
	var nombres []string
	valoresPor := make(map[string]any)

	for nombre, valor := range fila {
		if _, existe := l.columnas[nombre]; !existe {
			continue
		}
		nombres = append(nombres, nombre)
		valoresPor[nombre] = valor
	}

	for nombre, col := range l.columnas {
		if _, asignada := valoresPor[nombre]; asignada {
			continue
		}
		if col.AceptaNula || col.TieneDefault {
			continue
		}
		nombres = append(nombres, nombre)
		valoresPor[nombre] = rellenoPorTipo(col.TipoDato)
	}

	sort.Strings(nombres)

	valores := make([]any, len(nombres))
	for i, nombre := range nombres {
		valores[i] = valoresPor[nombre]
	}
	return nombres, valores
}

// rellenoPorTipo elige el valor neutro para una columna obligatoria ausente
func rellenoPorTipo(tipoDato string) any {
	switch strings.ToLower(tipoDato) {
	case "date", "datetime", "timestamp", "time", "year":
		return Ahora()
	case "tinyint", "smallint", "mediumint", "int", "bigint",
		"decimal", "numeric", "float", "double", "bit":
		return 0
	default:
		return ""
	}
}

// FilaSinEmpresa es un asiento sin ubicación organizacional, candidato a
// reanálisis cuando el registro de extensiones creció desde que se asentó.
type FilaSinEmpresa struct {
	ID              int64
	Entrante        bool
	NumeroCobrado   sql.NullString
	NumeroConectado sql.NullString
	NumeroMarcado   sql.NullString
}

// SelectSinEmpresa trae los asientos sin empresa asignada, paginados por id
func (l *Ledger) SelectSinEmpresa(ctx context.Context, limite int, afterID int64) ([]FilaSinEmpresa, error) {
	query := fmt.Sprintf(`
		SELECT id, entrante, numero_cobrado, numero_conectado, numero_marcado
		FROM %s
		WHERE empresa_id IS NULL AND id > ?
		ORDER BY id LIMIT ?
	`, l.tabla)

	rows, err := l.db.QueryContext(ctx, query, afterID, limite)
	if err != nil {
		return nil, fmt.Errorf("error consultando asientos sin empresa: %w", err)
	}
	defer rows.Close()

	var filas []FilaSinEmpresa
	for rows.Next() {
		var f FilaSinEmpresa
		if err := rows.Scan(&f.ID, &f.Entrante, &f.NumeroCobrado, &f.NumeroConectado, &f.NumeroMarcado); err != nil {
			return nil, fmt.Errorf("error escaneando asiento sin empresa: %w", err)
		}
		filas = append(filas, f)
	}
	return filas, rows.Err()
}

// UpdateUbicacion completa la ubicación de un asiento. COALESCE preserva lo
// ya asentado: el reanálisis solo rellena lo que quedó nulo.
func (l *Ledger) UpdateUbicacion(ctx context.Context, id int64, u Ubicacion) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			organizacion_id = COALESCE(organizacion_id, ?),
			empresa_id = COALESCE(empresa_id, ?),
			centro_costo_id = COALESCE(centro_costo_id, ?),
			sector_id = COALESCE(sector_id, ?),
			extension_id = COALESCE(extension_id, ?)
		WHERE id = ?
	`, l.tabla)

	if _, err := l.db.ExecContext(ctx, query,
		u.OrganizacionID, u.EmpresaID, u.CentroCostoID, u.SectorID, u.ExtensionID, id,
	); err != nil {
		return fmt.Errorf("error actualizando ubicación del asiento %d: %w", id, err)
	}
	return nil
}
