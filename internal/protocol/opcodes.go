package protocol

// Opcode — первый байт каждого исходящего кадра
type Opcode byte

const (
	OpLoginSuccess     Opcode = 0x0A
	OpDisconnect       Opcode = 0x14
	OpMapDescription   Opcode = 0x64
	OpMapSliceNorth    Opcode = 0x65
	OpMapSliceEast     Opcode = 0x66
	OpMapSliceSouth    Opcode = 0x67
	OpMapSliceWest     Opcode = 0x68
	OpTileUpdated      Opcode = 0x69
	OpAddThing         Opcode = 0x6A
	OpCreatureTurned   Opcode = 0x6B
	OpRemoveThing      Opcode = 0x6C
	OpCreatureMoved    Opcode = 0x6D
	OpContainerClosed  Opcode = 0x6F
	OpWorldLight       Opcode = 0x82
	OpMagicEffect      Opcode = 0x83
	OpAnimatedText     Opcode = 0x84
	OpCreatureHealth   Opcode = 0x8C
	OpCreatureSpeed    Opcode = 0x8F
	OpPlayerStats      Opcode = 0xA0
	OpPlayerSkills     Opcode = 0xA1
	OpPlayerConditions Opcode = 0xA2
	OpCancelAttack     Opcode = 0xA3
	OpCreatureSpeech   Opcode = 0xAA
	OpTextMessage      Opcode = 0xB4
	OpCancelWalk       Opcode = 0xB5
)

// Префиксы описания существа внутри тайла
const (
	UnknownCreatureMarker uint16 = 0x0061
	KnownCreatureMarker   uint16 = 0x0062
)

var opcodeNames = map[Opcode]string{
	OpLoginSuccess:     "login_success",
	OpDisconnect:       "disconnect",
	OpMapDescription:   "map_description",
	OpMapSliceNorth:    "map_slice_north",
	OpMapSliceEast:     "map_slice_east",
	OpMapSliceSouth:    "map_slice_south",
	OpMapSliceWest:     "map_slice_west",
	OpTileUpdated:      "tile_updated",
	OpAddThing:         "add_thing",
	OpCreatureTurned:   "creature_turned",
	OpRemoveThing:      "remove_thing",
	OpCreatureMoved:    "creature_moved",
	OpContainerClosed:  "container_closed",
	OpWorldLight:       "world_light",
	OpMagicEffect:      "magic_effect",
	OpAnimatedText:     "animated_text",
	OpCreatureHealth:   "creature_health",
	OpCreatureSpeed:    "creature_speed",
	OpPlayerStats:      "player_stats",
	OpPlayerSkills:     "player_skills",
	OpPlayerConditions: "player_conditions",
	OpCancelAttack:     "cancel_attack",
	OpCreatureSpeech:   "creature_speech",
	OpTextMessage:      "text_message",
	OpCancelWalk:       "cancel_walk",
}

// String возвращает имя опкода для логов и метрик
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "unknown"
}
