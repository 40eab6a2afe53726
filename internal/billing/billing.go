package billing

import (
	"github.com/shopspring/decimal"
)

var sesenta = decimal.NewFromInt(60)

// SegundosTarifados aplica la regla de redondeo escalonado: el primer minuto
// se cobra completo y el excedente se redondea hacia arriba al múltiplo de 6
// segundos. Cero o negativo tarifa cero. La función es monótona no
// decreciente sobre la duración cruda.
func SegundosTarifados(crudo int) int {
	if crudo <= 0 {
		return 0
	}
	if crudo <= 60 {
		return 60
	}
	excedente := crudo - 60
	bloques := (excedente + 5) / 6
	return 60 + bloques*6
}

// Importe calcula el monto a cobrar: (tarifa / 60) * segundos tarifados,
// en aritmética decimal, redondeado a centavos con mitad hacia arriba.
func Importe(tarifa decimal.Decimal, segundosTarifados int) decimal.Decimal {
	if segundosTarifados <= 0 || tarifa.IsZero() {
		return decimal.Zero.Round(2)
	}
	return tarifa.Div(sesenta).
		Mul(decimal.NewFromInt(int64(segundosTarifados))).
		Round(2)
}

// TarifaFila es una entrada de la tabla de tarifas ya cargada
type TarifaFila struct {
	TablaPrecio int64
	TipoLlamada int
	Tarifa      decimal.Decimal
}

type claveTarifa struct {
	tabla int64
	tipo  int
}

// IndiceTarifas resuelve la tarifa por (tabla de precio, tipo de llamada).
// Se construye una vez por corrida; una combinación ausente tarifa cero.
type IndiceTarifas struct {
	tarifas map[claveTarifa]decimal.Decimal
}

// NewIndiceTarifas arma el índice desde las filas cargadas de la base
func NewIndiceTarifas(filas []TarifaFila) *IndiceTarifas {
	idx := &IndiceTarifas{tarifas: make(map[claveTarifa]decimal.Decimal, len(filas))}
	for _, f := range filas {
		idx.tarifas[claveTarifa{tabla: f.TablaPrecio, tipo: f.TipoLlamada}] = f.Tarifa
	}
	return idx
}

// Tarifa devuelve la tarifa por minuto para la tabla y tipo dados; cero si
// no hay mapeo (no es un error).
func (i *IndiceTarifas) Tarifa(tablaPrecio int64, tipoLlamada int) decimal.Decimal {
	if t, ok := i.tarifas[claveTarifa{tabla: tablaPrecio, tipo: tipoLlamada}]; ok {
		return t
	}
	return decimal.Zero
}
