package classify

// Categoria es la clasificación de la llamada que termina en la tarificación
type Categoria string

const (
	CategoriaEntrante           Categoria = "ENTRANTE"
	CategoriaSaliente           Categoria = "SALIENTE"
	CategoriaEntranteAbandonada Categoria = "ENTRANTE_ABANDONADA"
	CategoriaInterna            Categoria = "INTERNA"
	CategoriaConferencia        Categoria = "CONFERENCIA"
	CategoriaTransferencia      Categoria = "TRANSFERENCIA"
	CategoriaInternaAbandonada  Categoria = "INTERNA_ABANDONADA"
	CategoriaSalienteAbandonada Categoria = "SALIENTE_ABANDONADA"
	CategoriaOcupado            Categoria = "OCUPADO"
	CategoriaVacante            Categoria = "VACANTE"
	CategoriaSinClasificar      Categoria = "SIN_CLASIFICAR"
)

// Códigos de disposición que emite la central. La tabla es fija en código:
// la numeración no viene de la base de datos.
const (
	DisposicionEntrante           = 1
	DisposicionSaliente           = 2
	DisposicionEntranteAbandonada = 3
	DisposicionInterna            = 4
	DisposicionConferencia        = 5
	DisposicionTransferencia      = 6
	DisposicionInternaAbandonada  = 7
	DisposicionSalienteAbandonada = 8
	DisposicionOcupado            = 9
	DisposicionVacante            = 10
)

// taxonomia mapea código de disposición a categoría. Un código fuera de esta
// tabla se deriva al clasificador de respaldo por propiedad de números.
var taxonomia = map[int]Categoria{
	DisposicionEntrante:           CategoriaEntrante,
	DisposicionSaliente:           CategoriaSaliente,
	DisposicionEntranteAbandonada: CategoriaEntranteAbandonada,
	DisposicionInterna:            CategoriaInterna,
	DisposicionConferencia:        CategoriaConferencia,
	DisposicionTransferencia:      CategoriaTransferencia,
	DisposicionInternaAbandonada:  CategoriaInternaAbandonada,
	DisposicionSalienteAbandonada: CategoriaSalienteAbandonada,
	DisposicionOcupado:            CategoriaOcupado,
	DisposicionVacante:            CategoriaVacante,
}

// Códigos de tipo de llamada usados para buscar tarifas. El 0 es el código
// "sin cargo" de las llamadas abandonadas/ocupado/vacante.
const (
	TipoSinCargo      = 0
	TipoLocal         = 1
	TipoNacional      = 2
	TipoCelular       = 3
	TipoInternacional = 4
	TipoInterna       = 5
)

// etiquetasTipo mapea la etiqueta declarada por el SBC al código de tipo.
// Una etiqueta desconocida queda como sin cargo (tarifa cero).
var etiquetasTipo = map[string]int{
	"LOCAL":         TipoLocal,
	"NACIONAL":      TipoNacional,
	"LDN":           TipoNacional,
	"CELULAR":       TipoCelular,
	"MOVIL":         TipoCelular,
	"INTERNACIONAL": TipoInternacional,
	"LDI":           TipoInternacional,
	"INTERNA":       TipoInterna,
}

// TipoDesdeEtiqueta devuelve el código de tipo de llamada para la etiqueta
// declarada por la central
func TipoDesdeEtiqueta(etiqueta string) int {
	if t, ok := etiquetasTipo[etiqueta]; ok {
		return t
	}
	return TipoSinCargo
}
