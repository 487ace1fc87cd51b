// Package protocol implements the binary relay wire format.
//
// A frame starts with an int32 signifier. Most frames follow it with an
// int32 byte length and that many bytes of UTF-16LE text; some signifiers
// carry extra int32 fields before or instead of the text. All integers are
// little-endian. The codec is stateless: Decode parses one complete frame,
// Encode produces one.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
)

// Decode errors
var (
	// ErrTruncated means a declared length exceeded the remaining buffer
	ErrTruncated = errors.New("protocol: truncated frame")
)

// Encode serializes a message into one wire frame. It never fails for a
// well-formed Message value.
func Encode(msg Message) []byte {
	buf := appendInt32(nil, int32(msg.Signifier()))

	switch m := msg.(type) {
	case Signup:
		buf = appendText(buf, m.Username+","+m.Password)
	case Signin:
		buf = appendText(buf, m.Username+","+m.Password)
	case ClientText:
		buf = appendText(buf, m.Text)
	case JoinGame:
		buf = appendText(buf, m.GameID)
	case BackOut:
		buf = appendText(buf, m.GameID)
	case ChatToOpponent:
		buf = appendText(buf, m.GameID+","+m.Text)
	case MoveToOpponent:
		buf = appendText(buf, m.GameID)
		buf = appendInt32(buf, m.X)
		buf = appendInt32(buf, m.Y)
		buf = appendInt32(buf, m.Outcome)
	case ObserverSync:
		buf = appendText(buf, m.GameID)
		buf = appendMoves(buf, m.Moves)
	case LoginResponse:
		prefix := "NO,"
		if m.Approved {
			prefix = "YES,"
		}
		buf = appendText(buf, prefix+m.Text)
	case GameIDResponse:
		buf = appendInt32(buf, m.Role)
		buf = appendText(buf, m.Marker)
	case RoomKick, ObserverSyncRequest, LookingForPlayer, Unknown:
		// signifier only
	case ChatRelay:
		buf = appendText(buf, m.Text)
	case MoveRelay:
		buf = appendInt32(buf, m.X)
		buf = appendInt32(buf, m.Y)
		buf = appendInt32(buf, m.Outcome)
		buf = appendText(buf, m.Marker)
	case ObserverSyncFinal:
		buf = appendMoves(buf, m.Moves)
	default:
		panic(fmt.Sprintf("protocol: cannot encode %T", msg))
	}

	return buf
}

// DecodeClientFrame parses a frame as sent by a client. This is the decode
// path used by the server; bidirectional signifiers (9, 12) take their
// client-to-server layout.
func DecodeClientFrame(raw []byte) (Message, error) {
	r := frameReader{buf: raw}
	sig, err := r.int32()
	if err != nil {
		return nil, err
	}

	switch Signifier(sig) {
	case SigAccountSignup:
		username, password, err := r.credentials()
		if err != nil {
			return nil, err
		}
		return Signup{Username: username, Password: password}, nil
	case SigAccountSignin:
		username, password, err := r.credentials()
		if err != nil {
			return nil, err
		}
		return Signin{Username: username, Password: password}, nil
	case SigMessage:
		text, err := r.text()
		if err != nil {
			return nil, err
		}
		return ClientText{Text: text}, nil
	case SigGameID:
		gameID, err := r.text()
		if err != nil {
			return nil, err
		}
		return JoinGame{GameID: gameID}, nil
	case SigBackOut:
		gameID, err := r.text()
		if err != nil {
			return nil, err
		}
		return BackOut{GameID: gameID}, nil
	case SigMessageToOpponent:
		payload, err := r.text()
		if err != nil {
			return nil, err
		}
		gameID, text, _ := strings.Cut(payload, ",")
		return ChatToOpponent{GameID: gameID, Text: text}, nil
	case SigSelectionToOpponent:
		gameID, err := r.text()
		if err != nil {
			return nil, err
		}
		x, y, outcome, err := r.triple()
		if err != nil {
			return nil, err
		}
		return MoveToOpponent{GameID: gameID, X: x, Y: y, Outcome: outcome}, nil
	case SigAllSelectionsToObserver:
		gameID, err := r.text()
		if err != nil {
			return nil, err
		}
		moves, err := r.moves()
		if err != nil {
			return nil, err
		}
		return ObserverSync{GameID: gameID, Moves: moves}, nil
	default:
		return Unknown{Sig: Signifier(sig)}, nil
	}
}

// DecodeServerFrame parses a frame as sent by the server. This is the decode
// path used by clients.
func DecodeServerFrame(raw []byte) (Message, error) {
	r := frameReader{buf: raw}
	sig, err := r.int32()
	if err != nil {
		return nil, err
	}

	switch Signifier(sig) {
	case SigServerLoginResponse:
		payload, err := r.text()
		if err != nil {
			return nil, err
		}
		prefix, text, _ := strings.Cut(payload, ",")
		return LoginResponse{Approved: prefix == "YES", Text: text}, nil
	case SigServerGameIDResponse:
		role, err := r.int32()
		if err != nil {
			return nil, err
		}
		marker, err := r.text()
		if err != nil {
			return nil, err
		}
		return GameIDResponse{Role: role, Marker: marker}, nil
	case SigServerGameRoomKick:
		return RoomKick{}, nil
	case SigMessageToOpponent:
		text, err := r.text()
		if err != nil {
			return nil, err
		}
		return ChatRelay{Text: text}, nil
	case SigSelectionRelay:
		x, y, outcome, err := r.triple()
		if err != nil {
			return nil, err
		}
		marker, err := r.text()
		if err != nil {
			return nil, err
		}
		return MoveRelay{X: x, Y: y, Outcome: outcome, Marker: marker}, nil
	case SigAllSelectionsToObserver:
		return ObserverSyncRequest{}, nil
	case SigAllSelectionsFinal:
		moves, err := r.moves()
		if err != nil {
			return nil, err
		}
		return ObserverSyncFinal{Moves: moves}, nil
	case SigSendToLookingForPlayer:
		return LookingForPlayer{}, nil
	default:
		return Unknown{Sig: Signifier(sig)}, nil
	}
}

// frameReader walks a raw frame, failing with ErrTruncated when a read runs
// past the end of the buffer
type frameReader struct {
	buf []byte
	off int
}

func (r *frameReader) int32() (int32, error) {
	if r.off+4 > len(r.buf) {
		return 0, ErrTruncated
	}
	v := int32(binary.LittleEndian.Uint32(r.buf[r.off:]))
	r.off += 4
	return v, nil
}

// text reads an int32 byte length followed by that many bytes of UTF-16LE
func (r *frameReader) text() (string, error) {
	n, err := r.int32()
	if err != nil {
		return "", err
	}
	// UTF-16 payloads are two bytes per unit; an odd length means the frame
	// lost its final byte somewhere
	if n < 0 || n%2 != 0 || r.off+int(n) > len(r.buf) {
		return "", ErrTruncated
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return decodeUTF16(b), nil
}

// credentials reads a text payload of the form "username,password"
func (r *frameReader) credentials() (string, string, error) {
	payload, err := r.text()
	if err != nil {
		return "", "", err
	}
	username, password, _ := strings.Cut(payload, ",")
	return username, password, nil
}

func (r *frameReader) triple() (int32, int32, int32, error) {
	x, err := r.int32()
	if err != nil {
		return 0, 0, 0, err
	}
	y, err := r.int32()
	if err != nil {
		return 0, 0, 0, err
	}
	outcome, err := r.int32()
	if err != nil {
		return 0, 0, 0, err
	}
	return x, y, outcome, nil
}

// moves reads repeated {1, x, y, outcome} groups terminated by a 0 flag
func (r *frameReader) moves() ([]MoveEntry, error) {
	var out []MoveEntry
	for {
		flag, err := r.int32()
		if err != nil {
			return nil, err
		}
		if flag != 1 {
			return out, nil
		}
		x, y, outcome, err := r.triple()
		if err != nil {
			return nil, err
		}
		out = append(out, MoveEntry{X: x, Y: y, Outcome: outcome})
	}
}

func appendInt32(b []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(v))
}

func appendText(b []byte, s string) []byte {
	payload := encodeUTF16(s)
	b = appendInt32(b, int32(len(payload)))
	return append(b, payload...)
}

func appendMoves(b []byte, moves []MoveEntry) []byte {
	for _, mv := range moves {
		b = appendInt32(b, 1)
		b = appendInt32(b, mv.X)
		b = appendInt32(b, mv.Y)
		b = appendInt32(b, mv.Outcome)
	}
	return appendInt32(b, 0)
}

func encodeUTF16(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[2*i:], u)
	}
	return out
}

func decodeUTF16(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units))
}
