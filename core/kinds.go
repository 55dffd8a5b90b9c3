package core

import "github.com/signalworks/ecutopo/tree"

// Element kinds of the topology document. Containers are unnamed grouping
// elements; the identifiable entities are named children inside them.
const (
	KindSystem tree.Kind = "SYSTEM"

	KindEcuInstances tree.Kind = "ECU-INSTANCES"
	KindEcuInstance  tree.Kind = "ECU-INSTANCE"

	KindControllers        tree.Kind = "CONTROLLERS"
	KindEthernetController tree.Kind = "ETHERNET-CONTROLLER"
	KindCanController      tree.Kind = "CAN-CONTROLLER"
	KindFlexrayController  tree.Kind = "FLEXRAY-CONTROLLER"

	KindConnectors        tree.Kind = "CONNECTORS"
	KindEthernetConnector tree.Kind = "ETHERNET-CONNECTOR"
	KindCanConnector      tree.Kind = "CAN-CONNECTOR"
	KindFlexrayConnector  tree.Kind = "FLEXRAY-CONNECTOR"
	KindControllerRef     tree.Kind = "CONTROLLER-REF"
	KindCategory          tree.Kind = "CATEGORY"

	KindCommPortInstances tree.Kind = "ECU-COMM-PORT-INSTANCES"
	KindIPduPort          tree.Kind = "I-PDU-PORT"
	KindDirection         tree.Kind = "DIRECTION"

	KindClusters        tree.Kind = "CLUSTERS"
	KindEthernetCluster tree.Kind = "ETHERNET-CLUSTER"
	KindCanCluster      tree.Kind = "CAN-CLUSTER"
	KindFlexrayCluster  tree.Kind = "FLEXRAY-CLUSTER"

	KindPhysicalChannels        tree.Kind = "PHYSICAL-CHANNELS"
	KindEthernetPhysicalChannel tree.Kind = "ETHERNET-PHYSICAL-CHANNEL"
	KindCanPhysicalChannel      tree.Kind = "CAN-PHYSICAL-CHANNEL"
	KindFlexrayPhysicalChannel  tree.Kind = "FLEXRAY-PHYSICAL-CHANNEL"

	KindVlan           tree.Kind = "VLAN"
	KindCommConnectors tree.Kind = "COMM-CONNECTORS"
	KindConnectorRef   tree.Kind = "CONNECTOR-REF"

	KindNetworkEndpoints tree.Kind = "NETWORK-ENDPOINTS"
	KindNetworkEndpoint  tree.Kind = "NETWORK-ENDPOINT"
	KindAddresses        tree.Kind = "ADDRESSES"
	KindAddress          tree.Kind = "ADDRESS"
	KindFamily           tree.Kind = "FAMILY"
	KindAddressValue     tree.Kind = "ADDRESS-VALUE"
	KindAddressSource    tree.Kind = "ADDRESS-SOURCE"
	KindNetworkMask      tree.Kind = "NETWORK-MASK"
	KindDefaultGateway   tree.Kind = "DEFAULT-GATEWAY"
	KindPrefixLength     tree.Kind = "PREFIX-LENGTH"

	KindSocketAddresses       tree.Kind = "SOCKET-ADDRESSES"
	KindSocketAddress         tree.Kind = "SOCKET-ADDRESS"
	KindSocketRole            tree.Kind = "SOCKET-ROLE"
	KindMulticastConnectorRef tree.Kind = "MULTICAST-CONNECTOR-REF"
	KindNetworkEndpointRef    tree.Kind = "NETWORK-ENDPOINT-REF"
	KindTpConfiguration       tree.Kind = "TP-CONFIGURATION"
	KindProtocol              tree.Kind = "PROTOCOL"
	KindPortNumber            tree.Kind = "PORT-NUMBER"
	KindDynamicallyAssigned   tree.Kind = "DYNAMICALLY-ASSIGNED"

	KindStaticConnections      tree.Kind = "STATIC-SOCKET-CONNECTIONS"
	KindStaticSocketConnection tree.Kind = "STATIC-SOCKET-CONNECTION"
	KindRemoteSocketRef        tree.Kind = "REMOTE-SOCKET-REF"
	KindTcpRole                tree.Kind = "TCP-ROLE"
	KindTcpConnectTimeout      tree.Kind = "TCP-CONNECT-TIMEOUT"
	KindIPduIdentifierRef      tree.Kind = "I-PDU-IDENTIFIER-REF"

	KindConnectionBundles      tree.Kind = "CONNECTION-BUNDLES"
	KindSocketConnectionBundle tree.Kind = "SOCKET-CONNECTION-BUNDLE"
	KindServerPortRef          tree.Kind = "SERVER-PORT-REF"
	KindBundledConnections     tree.Kind = "BUNDLED-CONNECTIONS"
	KindSocketConnection       tree.Kind = "SOCKET-CONNECTION"
	KindClientPortRef          tree.Kind = "CLIENT-PORT-REF"
	KindClientIpFromRequest    tree.Kind = "CLIENT-IP-FROM-CONNECTION-REQUEST"
	KindClientPortFromRequest  tree.Kind = "CLIENT-PORT-FROM-CONNECTION-REQUEST"
	KindPduIdentifiers         tree.Kind = "PDU-IDENTIFIERS"
	KindSocketConnectionIPduId tree.Kind = "SOCKET-CONNECTION-I-PDU-IDENTIFIER"
	KindHeaderId               tree.Kind = "HEADER-ID"
	KindTimeout                tree.Kind = "TIMEOUT"
	KindCollectionTrigger      tree.Kind = "COLLECTION-TRIGGER"
	KindPduTriggeringRef       tree.Kind = "PDU-TRIGGERING-REF"

	KindPduTriggerings tree.Kind = "PDU-TRIGGERINGS"
	KindPduTriggering  tree.Kind = "PDU-TRIGGERING"
	KindPduRef         tree.Kind = "PDU-REF"
	KindPortRefs       tree.Kind = "PORT-REFS"
	KindPortRef        tree.Kind = "PORT-REF"

	KindPdus              tree.Kind = "PDUS"
	KindGeneralPurposePdu tree.Kind = "GENERAL-PURPOSE-PDU"
	KindLength            tree.Kind = "LENGTH"

	KindIPduIdentifierSets  tree.Kind = "I-PDU-IDENTIFIER-SETS"
	KindIPduIdentifierSet   tree.Kind = "SOCKET-CONNECTION-I-PDU-IDENTIFIER-SET"
	KindSoConIPduIdentifier tree.Kind = "SO-CON-I-PDU-IDENTIFIER"
)
