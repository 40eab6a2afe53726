package database

import "time"

// Extension representa un ramal del registro con su ubicación organizacional
// y las tablas de precio aplicables. Se carga una vez por corrida; después
// el registro es de solo lectura.
type Extension struct {
	ID             int64  `db:"id"`
	Numero         string `db:"numero"`
	OrganizacionID int64  `db:"organizacion_id"`
	EmpresaID      int64  `db:"empresa_id"`
	CentroCostoID  int64  `db:"centro_costo_id"`
	SectorID       int64  `db:"sector_id"`

	// Tablas de precio: la de la empresa y la de la organización
	TablaPrecioEmpresa      int64 `db:"tabla_precio_empresa"`
	TablaPrecioOrganizacion int64 `db:"tabla_precio_organizacion"`
}

// RawLine es una línea cruda del almacén de eventos, tal como la dejó el
// listener de ingesta. Transitoria: vive lo que dura el lote.
type RawLine struct {
	ID    int64
	Linea string
}

// Ubicacion es la colocación organizacional que la reanálisis puede
// completar sobre filas ya escritas con empresa nula.
type Ubicacion struct {
	OrganizacionID int64
	EmpresaID      int64
	CentroCostoID  int64
	SectorID       int64
	ExtensionID    int64
}

// Fila es el valor de una fila destino lista para insertar: campo lógico a
// valor. Los valores nil se insertan como NULL (o el placeholder que exija
// la columna).
type Fila map[string]any

// Ahora permite inyectar el reloj en pruebas del ledger
var Ahora = time.Now
