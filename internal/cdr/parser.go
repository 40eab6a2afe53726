package cdr

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNoAplicable indica que la línea no es un CALL_END procesable: muy corta,
// de otro tipo de evento o de una pierna distinta a la configurada.
var ErrNoAplicable = errors.New("registro no aplicable")

// El SBC escribe los timestamps en dos formatos: con y sin zona horaria.
var layoutsTimestamp = []string{
	"15:04:05.000 MST Mon Jan 02 2006",
	"15:04:05.000 Mon Jan 02 2006",
}

var secuenciaRe = regexp.MustCompile(`\[S=(\d+)\]`)

// Parse convierte una línea cruda del almacén de eventos en un CallRecord.
// id es el identificador natural de la fila origen. leg selecciona cuál de
// las dos piernas de transporte se importa; una cadena vacía acepta ambas.
func Parse(id int64, linea string, leg string) (*CallRecord, error) {
	campos := strings.Split(linea, "|")
	if len(campos) < MinCampos {
		return nil, ErrNoAplicable
	}
	for i := range campos {
		campos[i] = strings.TrimSpace(campos[i])
	}

	if campos[campoTipoEvento] != TipoEventoCallEnd {
		return nil, ErrNoAplicable
	}
	if leg != "" && !strings.EqualFold(campos[campoLeg], leg) {
		return nil, ErrNoAplicable
	}

	r := &CallRecord{
		ID:              id,
		CallID:          campos[campoCallID],
		SessionID:       campos[campoSessionID],
		Leg:             campos[campoLeg],
		Origen:          campos[campoOrigen],
		Destino:         campos[campoDestino],
		OrigenOriginal:  campos[campoOrigenOriginal],
		DestinoOriginal: campos[campoDestinoOriginal],
		TipoLlamada:     campos[campoTipoLlamada],
		ReleaseCause:    campos[campoReleaseCause],
		ReleaseText:     campos[campoReleaseText],
		MetodoSIP:       campos[campoMetodoSIP],
	}

	if code, err := strconv.Atoi(campos[campoDisposicion]); err == nil {
		r.Disposicion = &code
	}

	// La ausencia del marcador de secuencia no es un error
	if m := secuenciaRe.FindStringSubmatch(campos[campoPrefijo]); m != nil {
		if seq, err := strconv.Atoi(m[1]); err == nil {
			r.Secuencia = &seq
		}
	}

	r.Inicio = parseTimestamp(campos[campoInicio])
	r.Conexion = parseTimestamp(campos[campoConexion])
	r.Fin = parseTimestamp(campos[campoFin])

	return r, nil
}

// parseTimestamp intenta ambos formatos del SBC; devuelve cero si ninguno
// aplica, lo que no invalida el registro completo.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range layoutsTimestamp {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
