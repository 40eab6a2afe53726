package database

// VarianteID distingue las dos clases de id que conviven en la tabla de
// tarificación: filas nativas de la plataforma y filas espejadas desde los
// registros de la central.
type VarianteID int

const (
	// IDNativa es una fila creada por la propia plataforma de facturación.
	// Este pipeline nunca produce filas nativas.
	IDNativa VarianteID = iota
	// IDEspejada es una fila derivada de un registro crudo de la central
	IDEspejada
)

// IDTarificacion es el identificador destino con su variante explícita.
// Origen es el id natural de la fila fuente para las espejadas, o el valor
// absoluto del id para las nativas.
type IDTarificacion struct {
	Variante VarianteID
	Origen   int64
}

// ConvencionSigno define qué signo marca las filas espejadas en el entero
// subyacente. Por defecto las espejadas son negativas.
type ConvencionSigno struct {
	EspejadaNegativa bool
}

// Espejada construye el id destino para un registro fuente
func Espejada(origen int64) IDTarificacion {
	return IDTarificacion{Variante: IDEspejada, Origen: origen}
}

// Valor codifica el id al entero que se persiste. La conversión es total:
// todo IDTarificacion tiene exactamente un entero y viceversa.
func (c ConvencionSigno) Valor(id IDTarificacion) int64 {
	espejadaNegativa := c.EspejadaNegativa
	if (id.Variante == IDEspejada) == espejadaNegativa {
		return -id.Origen
	}
	return id.Origen
}

// Desde decodifica el entero persistido a su variante y origen
func (c ConvencionSigno) Desde(valor int64) IDTarificacion {
	negativo := valor < 0
	origen := valor
	if negativo {
		origen = -valor
	}
	if negativo == c.EspejadaNegativa {
		return IDTarificacion{Variante: IDEspejada, Origen: origen}
	}
	return IDTarificacion{Variante: IDNativa, Origen: origen}
}

// ValorEspejado es el atajo para el caso común: id destino de una fila
// espejada a partir del id fuente.
func (c ConvencionSigno) ValorEspejado(origen int64) int64 {
	return c.Valor(Espejada(origen))
}
