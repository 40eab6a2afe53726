package cdr

import (
	"strings"
	"time"
)

// Posiciones de campo dentro de una línea CALL_END del SBC.
// La línea usa `|` como separador y requiere un mínimo de 22 campos.
const (
	campoPrefijo         = 0 // puede contener el marcador de secuencia [S=nnnn]
	campoTipoEvento      = 1 // debe ser "CALL_END"
	campoCallID          = 2
	campoSessionID       = 3
	campoLeg             = 4
	campoOrigen          = 5 // URI origen
	campoDestino         = 6 // URI destino
	campoOrigenOriginal  = 7 // URI origen antes de redirección
	campoDestinoOriginal = 8 // URI destino antes de redirección
	campoTipoLlamada     = 9 // etiqueta declarada por el SBC (LOCAL, CELULAR, ...)
	campoDisposicion     = 10
	campoReleaseCause    = 11
	campoReleaseText     = 12
	campoInicio          = 13
	campoConexion        = 14
	campoFin             = 15
	campoMetodoSIP       = 21

	// MinCampos es el mínimo de campos para que una línea sea procesable
	MinCampos = 22
)

// TipoEventoCallEnd es el único tipo de evento que importa el pipeline
const TipoEventoCallEnd = "CALL_END"

// CallRecord representa un registro CALL_END ya parseado. Es inmutable:
// se construye desde una línea cruda y se descarta al terminar el lote.
type CallRecord struct {
	ID        int64 // id asignado por el almacén de eventos crudos
	CallID    string
	SessionID string
	Leg       string

	Origen          string // URI tal como vino del SBC
	Destino         string
	OrigenOriginal  string // endpoints antes de una redirección
	DestinoOriginal string

	TipoLlamada  string // etiqueta declarada (LOCAL, NACIONAL, CELULAR, ...)
	Disposicion  *int   // código de disposición/causa; nil si no es numérico
	ReleaseCause string
	ReleaseText  string
	MetodoSIP    string

	Inicio   time.Time
	Conexion time.Time
	Fin      time.Time

	Secuencia *int // extraído del marcador [S=nnnn]; nil si ausente
}

// NumeroOrigen devuelve el número pelado del URI origen
func (r *CallRecord) NumeroOrigen() string { return userPart(r.Origen) }

// NumeroDestino devuelve el número pelado del URI destino
func (r *CallRecord) NumeroDestino() string { return userPart(r.Destino) }

// NumeroOrigenOriginal devuelve el número del URI origen previo a redirección
func (r *CallRecord) NumeroOrigenOriginal() string { return userPart(r.OrigenOriginal) }

// NumeroDestinoOriginal devuelve el número del URI destino previo a redirección
func (r *CallRecord) NumeroDestinoOriginal() string { return userPart(r.DestinoOriginal) }

// DuracionSegundos devuelve la duración cruda (conexión a fin). Cero si la
// llamada nunca conectó o los timestamps no se pudieron parsear.
func (r *CallRecord) DuracionSegundos() int {
	if r.Conexion.IsZero() || r.Fin.IsZero() || r.Fin.Before(r.Conexion) {
		return 0
	}
	return int(r.Fin.Sub(r.Conexion).Seconds())
}

// userPart extrae la parte de usuario de un URI SIP/TEL: quita el esquema,
// los parámetros después de `;` y todo lo que sigue al `@`.
func userPart(uri string) string {
	s := strings.TrimSpace(uri)
	for _, scheme := range []string{"sips:", "sip:", "tel:"} {
		if strings.HasPrefix(s, scheme) {
			s = s[len(scheme):]
			break
		}
	}
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return s
}
