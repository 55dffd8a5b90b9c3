package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/model"
	"github.com/signalworks/ecutopo/tree"
)

// NetworkEndpoint is an L3 address set on an Ethernet channel. All address
// records of one endpoint share a single family, and at most one record may
// use a fixed source.
type NetworkEndpoint struct {
	sys  *System
	elem *tree.Element
}

func (ep NetworkEndpoint) Name() string { return ep.elem.Name() }

// Element exposes the backing tree element for identity comparisons.
func (ep NetworkEndpoint) Element() *tree.Element { return ep.elem }

// Channel returns the Ethernet channel owning the endpoint.
func (ep NetworkEndpoint) Channel() (EthernetChannel, error) {
	ch := ep.elem.NamedParent()
	if ch == nil || ch.Kind() != KindEthernetPhysicalChannel {
		return EthernetChannel{}, fmt.Errorf("network endpoint %q has no owning channel: %w", ep.Name(), ErrReferenceIntegrity)
	}
	return EthernetChannel{sys: ep.sys, elem: ch}, nil
}

// AddAddress appends an address record, enforcing the family and fixed-source
// rules against the records already present.
func (ep NetworkEndpoint) AddAddress(addr model.NetworkEndpointAddress) error {
	if addr.Family != model.FamilyIPv4 && addr.Family != model.FamilyIPv6 {
		return fmt.Errorf("address family %q: %w", addr.Family, ErrInvalidParameter)
	}
	existing := ep.Addresses()
	for _, a := range existing {
		if a.Family != addr.Family {
			return fmt.Errorf("endpoint %q mixes %s and %s: %w", ep.Name(), a.Family, addr.Family, ErrInvalidAddressConfig)
		}
	}
	if addr.IsFixed() {
		for _, a := range existing {
			if a.IsFixed() {
				return fmt.Errorf("endpoint %q already has a fixed address: %w", ep.Name(), ErrInvalidAddressConfig)
			}
		}
	}
	return ep.appendAddress(addr)
}

func (ep NetworkEndpoint) appendAddress(addr model.NetworkEndpointAddress) error {
	addrs, err := ep.elem.GetOrCreateChild(KindAddresses)
	if err != nil {
		return err
	}
	rec, err := addrs.CreateChild(KindAddress)
	if err != nil {
		return err
	}
	set := func(kind tree.Kind, value string) error {
		if value == "" {
			return nil
		}
		c, err := rec.GetOrCreateChild(kind)
		if err != nil {
			return err
		}
		return c.SetValue(value)
	}
	if err := set(KindFamily, string(addr.Family)); err != nil {
		return err
	}
	if err := set(KindAddressValue, addr.Address); err != nil {
		return err
	}
	switch addr.Family {
	case model.FamilyIPv4:
		if err := set(KindAddressSource, string(addr.SourceV4)); err != nil {
			return err
		}
		if err := set(KindNetworkMask, addr.NetworkMask); err != nil {
			return err
		}
		if err := set(KindDefaultGateway, addr.DefaultGateway); err != nil {
			return err
		}
	case model.FamilyIPv6:
		if err := set(KindAddressSource, string(addr.SourceV6)); err != nil {
			return err
		}
		if addr.PrefixLength != nil {
			c, err := rec.GetOrCreateChild(KindPrefixLength)
			if err != nil {
				return err
			}
			if err := c.SetUint(uint64(*addr.PrefixLength)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Addresses returns the endpoint's address records in insertion order.
func (ep NetworkEndpoint) Addresses() []model.NetworkEndpointAddress {
	addrs := ep.elem.GetChild(KindAddresses)
	if addrs == nil {
		return nil
	}
	var out []model.NetworkEndpointAddress
	for _, rec := range addrs.ChildrenOfKind(KindAddress) {
		out = append(out, decodeAddress(rec))
	}
	return out
}

func decodeAddress(rec *tree.Element) model.NetworkEndpointAddress {
	get := func(kind tree.Kind) string {
		c := rec.GetChild(kind)
		if c == nil {
			return ""
		}
		v, _ := c.Value()
		return v
	}
	addr := model.NetworkEndpointAddress{
		Family:  model.AddressFamily(get(KindFamily)),
		Address: get(KindAddressValue),
	}
	switch addr.Family {
	case model.FamilyIPv4:
		addr.SourceV4 = model.IPv4AddressSource(get(KindAddressSource))
		addr.NetworkMask = get(KindNetworkMask)
		addr.DefaultGateway = get(KindDefaultGateway)
	case model.FamilyIPv6:
		addr.SourceV6 = model.IPv6AddressSource(get(KindAddressSource))
		if c := rec.GetChild(KindPrefixLength); c != nil {
			if v, ok := c.Uint(); ok {
				p := uint8(v)
				addr.PrefixLength = &p
			}
		}
	}
	return addr
}

// AllWildcard reports whether every address record of the endpoint stands
// for the unspecified address. Endpoints without records count as wildcard.
func (ep NetworkEndpoint) AllWildcard() bool {
	for _, a := range ep.Addresses() {
		if !a.IsWildcard() {
			return false
		}
	}
	return true
}
