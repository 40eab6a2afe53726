package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Source lee la tabla cruda donde el recolector deposita las líneas del SBC.
// La selección de pendientes se hace contra el libro de tarificación con un
// anti-join: una línea está pendiente si su id espejado todavía no existe.
type Source struct {
	db         *sql.DB
	tabla      string
	tablaLibro string
	convencion ConvencionSigno
}

// NewSource crea el lector de la tabla cruda
func NewSource(conn *Connection, tabla, tablaLibro string, convencion ConvencionSigno) *Source {
	return &Source{
		db:         conn.DB,
		tabla:      tabla,
		tablaLibro: tablaLibro,
		convencion: convencion,
	}
}

// expresionEspejo devuelve la expresión SQL que espeja el id crudo según la
// convención de signo vigente.
func (s *Source) expresionEspejo() string {
	if s.convencion.EspejadaNegativa {
		return "-s.id"
	}
	return "s.id"
}

// SelectPendientes devuelve hasta limite ids de líneas crudas sin asiento en
// el libro, con id mayor que afterID. Las líneas que el procesamiento decide
// no asentar (inválidas, sin extensión) quedan pendientes para siempre: el
// cursor afterID es lo que impide volver a visitarlas dentro de una corrida.
func (s *Source) SelectPendientes(ctx context.Context, limite int, fechas []string, afterID int64) ([]int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b,
		`SELECT s.id FROM %s s LEFT JOIN %s d ON d.id = %s WHERE d.id IS NULL AND s.id > ?`,
		s.tabla, s.tablaLibro, s.expresionEspejo())

	args := []any{afterID}
	if len(fechas) > 0 {
		b.WriteString(" AND DATE(s.criado_em) IN (")
		for i, fecha := range fechas {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
			args = append(args, fecha)
		}
		b.WriteString(")")
	}
	b.WriteString(" ORDER BY s.id LIMIT ?")
	args = append(args, limite)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("error consultando líneas pendientes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error escaneando id pendiente: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FetchLineas trae el texto crudo de las líneas indicadas
func (s *Source) FetchLineas(ctx context.Context, ids []int64) ([]RawLine, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	marcas := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := fmt.Sprintf(`SELECT id, linea FROM %s WHERE id IN (%s) ORDER BY id`, s.tabla, marcas)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error trayendo líneas crudas: %w", err)
	}
	defer rows.Close()

	var lineas []RawLine
	for rows.Next() {
		var l RawLine
		if err := rows.Scan(&l.ID, &l.Linea); err != nil {
			return nil, fmt.Errorf("error escaneando línea cruda: %w", err)
		}
		lineas = append(lineas, l)
	}
	return lineas, rows.Err()
}

// CountPendientes cuenta las líneas crudas sin asiento, para el comando de
// estado. No aplica cursor: es el total real.
func (s *Source) CountPendientes(ctx context.Context, fechas []string) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b,
		`SELECT COUNT(*) FROM %s s LEFT JOIN %s d ON d.id = %s WHERE d.id IS NULL`,
		s.tabla, s.tablaLibro, s.expresionEspejo())

	var args []any
	if len(fechas) > 0 {
		b.WriteString(" AND DATE(s.criado_em) IN (")
		for i, fecha := range fechas {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
			args = append(args, fecha)
		}
		b.WriteString(")")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, b.String(), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error contando pendientes: %w", err)
	}
	return total, nil
}
