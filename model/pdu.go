package model

// PduCollectionTrigger states when a collected PDU is flushed to the bus.
type PduCollectionTrigger string

const (
	TriggerAlways PduCollectionTrigger = "ALWAYS"
	TriggerNever  PduCollectionTrigger = "NEVER"
)

// CommunicationDirection is the direction of a PDU port relative to its ECU.
type CommunicationDirection string

const (
	DirectionIn  CommunicationDirection = "IN"
	DirectionOut CommunicationDirection = "OUT"
)

// TcpRole is the connection role of a static socket connection.
type TcpRole string

const (
	TcpRoleConnect TcpRole = "CONNECT"
	TcpRoleListen  TcpRole = "LISTEN"
)
