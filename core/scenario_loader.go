package core

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/signalworks/ecutopo/model"
)

// Scenario is a topology loaded from JSON, together with the resolved
// service-discovery plan. It's mainly consumed by cmd/sdwire, but tests use
// it too.
type Scenario struct {
	System  *System
	Channel EthernetChannel

	// SdConfig is non-nil when the scenario declares a service-discovery
	// section; SdRuns then lists the per-ECU configurations to apply.
	SdConfig *CommonServiceDiscoveryConfig
	SdRuns   []SdRun

	EcuNames     []string
	ChannelNames []string
	SocketNames  []string
	PduNames     []string
}

// SdRun is one ECU's service-discovery configuration request.
type SdRun struct {
	Ecu           EcuInstance
	UnicastSocket SocketAddress
	RxPdu         GeneralPurposePdu
	TxPdu         GeneralPurposePdu
}

// internal JSON shapes – kept unexported so we're free to evolve them.
type scenarioJSON struct {
	StaticConnections bool        `json:"static_connections"`
	Ecus              []ecuJSON   `json:"ecus"`
	Cluster           clusterJSON `json:"cluster"`
	Pdus              []pduJSON   `json:"pdus"`
	ServiceDiscovery  *sdJSON     `json:"service_discovery"`
}

type ecuJSON struct {
	Name        string           `json:"name"`
	Controllers []controllerJSON `json:"controllers"`
}

type controllerJSON struct {
	Name string `json:"name"`
	Bus  string `json:"bus"` // "ethernet" | "can" | "flexray"
}

type clusterJSON struct {
	Name     string        `json:"name"`
	Channels []channelJSON `json:"channels"`
}

type channelJSON struct {
	Name      string          `json:"name"`
	Vlan      *model.VlanInfo `json:"vlan"`
	Connect   []connectJSON   `json:"connect"`
	Endpoints []endpointJSON  `json:"endpoints"`
	Sockets   []socketJSON    `json:"sockets"`
}

type connectJSON struct {
	Ecu        string `json:"ecu"`
	Controller string `json:"controller"`
	Connector  string `json:"connector"`
}

type endpointJSON struct {
	Name           string `json:"name"`
	Family         string `json:"family"` // "ipv4" | "ipv6"
	Address        string `json:"address"`
	Source         string `json:"source"`
	NetworkMask    string `json:"network_mask"`
	DefaultGateway string `json:"default_gateway"`
	PrefixLength   *uint8 `json:"prefix_length"`
}

type socketJSON struct {
	Name        string   `json:"name"`
	Endpoint    string   `json:"endpoint"`
	Role        string   `json:"role"` // "unicast" | "multicast"
	Protocol    string   `json:"protocol"`
	Port        *uint16  `json:"port"`
	DynamicPort *bool    `json:"dynamic_port"`
	Ecu         string   `json:"ecu"`
	Ecus        []string `json:"ecus"`
}

type pduJSON struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Length   uint32 `json:"length"`
}

type sdJSON struct {
	MulticastSocket string      `json:"multicast_socket"`
	MulticastPdu    string      `json:"multicast_pdu"`
	RemoteSocket    string      `json:"remote_socket"`
	PreferStatic    bool        `json:"prefer_static"`
	IdentifierSet   string      `json:"identifier_set"`
	Prefix          string      `json:"prefix"`
	Ecus            []sdEcuJSON `json:"ecus"`
}

type sdEcuJSON struct {
	Ecu           string `json:"ecu"`
	UnicastSocket string `json:"unicast_socket"`
	RxPdu         string `json:"rx_pdu"`
	TxPdu         string `json:"tx_pdu"`
}

// LoadScenario reads a JSON scenario from r and builds the topology
// document. The service-discovery section is resolved into handles but not
// executed; callers decide when to run it.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var payload scenarioJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	var opts []SystemOption
	if payload.StaticConnections {
		opts = append(opts, WithStaticConnections())
	}
	sys := NewSystem(opts...)
	out := &Scenario{System: sys}

	ethCtrls := map[string]EthernetController{}
	for _, je := range payload.Ecus {
		if je.Name == "" {
			return nil, fmt.Errorf("LoadScenario: ecu with empty name")
		}
		ecu, err := sys.CreateEcuInstance(je.Name)
		if err != nil {
			return nil, fmt.Errorf("LoadScenario: %w", err)
		}
		out.EcuNames = append(out.EcuNames, je.Name)
		for _, jc := range je.Controllers {
			switch strings.ToLower(strings.TrimSpace(jc.Bus)) {
			case "", "ethernet":
				ctrl, err := ecu.CreateEthernetController(jc.Name)
				if err != nil {
					return nil, fmt.Errorf("LoadScenario: %w", err)
				}
				ethCtrls[je.Name+"/"+jc.Name] = ctrl
			case "can":
				if _, err := ecu.CreateCanController(jc.Name); err != nil {
					return nil, fmt.Errorf("LoadScenario: %w", err)
				}
			case "flexray":
				if _, err := ecu.CreateFlexrayController(jc.Name); err != nil {
					return nil, fmt.Errorf("LoadScenario: %w", err)
				}
			default:
				return nil, fmt.Errorf("LoadScenario: unknown bus %q", jc.Bus)
			}
		}
	}

	cluster, err := sys.CreateEthernetCluster(payload.Cluster.Name)
	if err != nil {
		return nil, fmt.Errorf("LoadScenario: %w", err)
	}

	endpoints := map[string]NetworkEndpoint{}
	sockets := map[string]SocketAddress{}
	for _, jch := range payload.Cluster.Channels {
		ch, err := cluster.CreatePhysicalChannel(jch.Name, jch.Vlan)
		if err != nil {
			return nil, fmt.Errorf("LoadScenario: channel %q: %w", jch.Name, err)
		}
		out.ChannelNames = append(out.ChannelNames, jch.Name)
		out.Channel = ch

		for _, jc := range jch.Connect {
			ctrl, ok := ethCtrls[jc.Ecu+"/"+jc.Controller]
			if !ok {
				return nil, fmt.Errorf("LoadScenario: channel %q: unknown controller %s/%s", jch.Name, jc.Ecu, jc.Controller)
			}
			connector := jc.Connector
			if connector == "" {
				connector = jc.Ecu + "_" + jch.Name
			}
			if _, err := ctrl.Connect(connector, ch); err != nil {
				return nil, fmt.Errorf("LoadScenario: channel %q: %w", jch.Name, err)
			}
		}

		for _, jep := range jch.Endpoints {
			addr, err := endpointAddressFromJSON(jep)
			if err != nil {
				return nil, fmt.Errorf("LoadScenario: endpoint %q: %w", jep.Name, err)
			}
			ep, err := ch.CreateNetworkEndpoint(jep.Name, addr)
			if err != nil {
				return nil, fmt.Errorf("LoadScenario: endpoint %q: %w", jep.Name, err)
			}
			endpoints[jep.Name] = ep
		}

		for _, jsa := range jch.Sockets {
			ep, ok := endpoints[jsa.Endpoint]
			if !ok {
				return nil, fmt.Errorf("LoadScenario: socket %q: unknown endpoint %q", jsa.Name, jsa.Endpoint)
			}
			tp := model.TpConfig{
				Protocol:                protocolFromString(jsa.Protocol),
				PortNumber:              jsa.Port,
				PortDynamicallyAssigned: jsa.DynamicPort,
			}
			var sa SocketAddress
			switch strings.ToLower(strings.TrimSpace(jsa.Role)) {
			case "multicast":
				var ecus []EcuInstance
				for _, name := range jsa.Ecus {
					ecu, ok := sys.EcuInstance(name)
					if !ok {
						return nil, fmt.Errorf("LoadScenario: socket %q: unknown ecu %q", jsa.Name, name)
					}
					ecus = append(ecus, ecu)
				}
				sa, err = ch.CreateMulticastSocketAddress(jsa.Name, ep, tp, ecus)
			default:
				var ecu *EcuInstance
				if jsa.Ecu != "" {
					e, ok := sys.EcuInstance(jsa.Ecu)
					if !ok {
						return nil, fmt.Errorf("LoadScenario: socket %q: unknown ecu %q", jsa.Name, jsa.Ecu)
					}
					ecu = &e
				}
				sa, err = ch.CreateUnicastSocketAddress(jsa.Name, ep, tp, ecu)
			}
			if err != nil {
				return nil, fmt.Errorf("LoadScenario: socket %q: %w", jsa.Name, err)
			}
			sockets[jsa.Name] = sa
			out.SocketNames = append(out.SocketNames, jsa.Name)
		}
	}

	pdus := map[string]GeneralPurposePdu{}
	for _, jp := range payload.Pdus {
		pdu, err := sys.CreateGeneralPurposePdu(jp.Name, jp.Category, jp.Length)
		if err != nil {
			return nil, fmt.Errorf("LoadScenario: %w", err)
		}
		pdus[jp.Name] = pdu
		out.PduNames = append(out.PduNames, jp.Name)
	}

	if payload.ServiceDiscovery != nil {
		jsd := payload.ServiceDiscovery
		msock, ok := sockets[jsd.MulticastSocket]
		if !ok {
			return nil, fmt.Errorf("LoadScenario: sd: unknown socket %q", jsd.MulticastSocket)
		}
		// The SD section applies to the channel owning its sockets, not to
		// whichever channel the scenario happened to declare last.
		sdChannel, err := msock.Channel()
		if err != nil {
			return nil, fmt.Errorf("LoadScenario: sd: %w", err)
		}
		out.Channel = sdChannel
		rsock, ok := sockets[jsd.RemoteSocket]
		if !ok {
			return nil, fmt.Errorf("LoadScenario: sd: unknown socket %q", jsd.RemoteSocket)
		}
		mpdu, ok := pdus[jsd.MulticastPdu]
		if !ok {
			return nil, fmt.Errorf("LoadScenario: sd: unknown pdu %q", jsd.MulticastPdu)
		}
		cfg := &CommonServiceDiscoveryConfig{
			MulticastRxSocket:       msock,
			MulticastRxPdu:          mpdu,
			RemoteSocket:            rsock,
			PreferStaticConnections: jsd.PreferStatic,
			NamePrefix:              jsd.Prefix,
		}
		if jsd.IdentifierSet != "" {
			set, err := sys.CreateIpduIdentifierSet(jsd.IdentifierSet)
			if err != nil {
				return nil, fmt.Errorf("LoadScenario: %w", err)
			}
			cfg.IpduIdentifierSet = &set
		}
		out.SdConfig = cfg
		for _, jrun := range jsd.Ecus {
			ecu, ok := sys.EcuInstance(jrun.Ecu)
			if !ok {
				return nil, fmt.Errorf("LoadScenario: sd: unknown ecu %q", jrun.Ecu)
			}
			usock, ok := sockets[jrun.UnicastSocket]
			if !ok {
				return nil, fmt.Errorf("LoadScenario: sd: unknown socket %q", jrun.UnicastSocket)
			}
			rx, ok := pdus[jrun.RxPdu]
			if !ok {
				return nil, fmt.Errorf("LoadScenario: sd: unknown pdu %q", jrun.RxPdu)
			}
			tx, ok := pdus[jrun.TxPdu]
			if !ok {
				return nil, fmt.Errorf("LoadScenario: sd: unknown pdu %q", jrun.TxPdu)
			}
			out.SdRuns = append(out.SdRuns, SdRun{Ecu: ecu, UnicastSocket: usock, RxPdu: rx, TxPdu: tx})
		}
	}

	return out, nil
}

func endpointAddressFromJSON(jep endpointJSON) (model.NetworkEndpointAddress, error) {
	switch strings.ToLower(strings.TrimSpace(jep.Family)) {
	case "", "ipv4":
		src := model.IPv4AddressSource(strings.ToUpper(jep.Source))
		if jep.Source == "" {
			src = model.IPv4SourceFixed
		}
		return model.NetworkEndpointAddress{
			Family:         model.FamilyIPv4,
			Address:        jep.Address,
			SourceV4:       src,
			NetworkMask:    jep.NetworkMask,
			DefaultGateway: jep.DefaultGateway,
		}, nil
	case "ipv6":
		src := model.IPv6AddressSource(strings.ToUpper(jep.Source))
		if jep.Source == "" {
			src = model.IPv6SourceFixed
		}
		return model.NetworkEndpointAddress{
			Family:       model.FamilyIPv6,
			Address:      jep.Address,
			SourceV6:     src,
			PrefixLength: jep.PrefixLength,
		}, nil
	default:
		return model.NetworkEndpointAddress{}, fmt.Errorf("unknown address family %q", jep.Family)
	}
}

// protocolFromString maps the JSON "protocol" string to a transport
// protocol. Unknown and empty values default to UDP, which is what the
// service-discovery examples use.
func protocolFromString(s string) model.TransportProtocol {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp":
		return model.ProtocolTCP
	default:
		return model.ProtocolUDP
	}
}
