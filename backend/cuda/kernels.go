package cuda

// PTX kernel for batched CBOW negative-sampling training.
// Target: sm_80+ (Ampere/Ada/Hopper). FP32 only.
// Loaded at runtime via cuModuleLoadData — no nvcc needed.
//
// Grid: (sentences, max_positions). Block: (dims) — one lane per
// embedding dimension. Dims must be a power of two: the dot-product
// reduction halves the active lane count each step.
//
// Dynamic shared memory: dims*4 bytes (reduction scratch). A small
// static shared block broadcasts crop/target/label/g from lane 0.
// Every conditional exit is uniform across the block (padding slot,
// empty window, target collision, saturation), so bar.sync stays
// aligned on all paths.
//
// Units race on loc/ctx rows across blocks with no synchronization.
// That is the intended asynchronous-SGD scheme; do not add atomics.
//
// sigmoid(f) is computed as 1/(1 + 2^(-f*log2(e))) using the hardware
// ex2 instruction.

const kernelPTX = `
.version 7.0
.target sm_80
.address_size 64

.extern .shared .align 4 .b8 sm[];

// ============================================================
// cbow_train_f32
//   loc     [vocab][dims] location (input-side) matrix
//   ctx     [vocab][dims] context (output-side) matrix
//   table   [table_len]   negative-sampling table (0-based ids)
//   tokens  [sentences][1+max_positions]; col 0 = kept length,
//           cols 1..len = id+1 (0 is the empty sentinel)
// ============================================================
.visible .entry cbow_train_f32(
    .param .u64 p_loc,
    .param .u64 p_ctx,
    .param .u64 p_table,
    .param .u64 p_tokens,
    .param .u32 p_maxpos,
    .param .u32 p_window,
    .param .u32 p_negs,
    .param .u32 p_tablelen,
    .param .f32 p_alpha,
    .param .u64 p_seed
) {
    .shared .align 8 .b8 ctl[16];

    .reg .pred %p, %q;
    .reg .u32 %tid, %dims, %sid, %pos, %maxpos, %window, %negs, %tablelen;
    .reg .u32 %stride, %rowoff, %crop, %wend, %w, %cw, %n, %tgt, %labelu;
    .reg .u32 %word, %tmp, %tmp2;
    .reg .s32 %slen, %c, %posS, %tmps;
    .reg .u64 %loc, %ctx, %table, %tokens, %seed, %state;
    .reg .u64 %addr, %addr2, %rowaddr, %rsm, %rctl, %u64t, %u64t2, %ctxaddr;
    .reg .f32 %hidden, %sum, %errf, %f, %g, %cval, %sig;
    .reg .f32 %t0, %t1, %alpha, %log2e, %cwf, %labelf;

    ld.param.u64 %loc, [p_loc];
    ld.param.u64 %ctx, [p_ctx];
    ld.param.u64 %table, [p_table];
    ld.param.u64 %tokens, [p_tokens];
    ld.param.u32 %maxpos, [p_maxpos];
    ld.param.u32 %window, [p_window];
    ld.param.u32 %negs, [p_negs];
    ld.param.u32 %tablelen, [p_tablelen];
    ld.param.f32 %alpha, [p_alpha];
    ld.param.u64 %seed, [p_seed];

    mov.u32 %tid, %tid.x;
    mov.u32 %dims, %ntid.x;
    mov.u32 %sid, %ctaid.x;
    mov.u32 %pos, %ctaid.y;

    // rowaddr = tokens + sid*(1+maxpos)*4
    add.u32 %stride, %maxpos, 1;
    mul.lo.u32 %rowoff, %sid, %stride;
    mul.wide.u32 %addr, %rowoff, 4;
    add.u64 %rowaddr, %tokens, %addr;

    ld.global.s32 %slen, [%rowaddr];
    cvt.s32.u32 %posS, %pos;
    setp.ge.s32 %p, %posS, %slen;
    @%p bra $L_done;                     // padding slot

    // positive target word (stored ids are 1-based)
    add.u32 %tmp, %pos, 1;
    mul.wide.u32 %addr, %tmp, 4;
    add.u64 %addr, %rowaddr, %addr;
    ld.global.s32 %tmps, [%addr];
    sub.s32 %tmps, %tmps, 1;
    cvt.u32.s32 %word, %tmps;

    mov.u64 %rsm, sm;
    mov.u64 %rctl, ctl;

    // -- step 1: lane 0 draws the window crop and broadcasts it --
    setp.ne.u32 %p, %tid, 0;
    @%p bra $L_crop_wait;
    cvt.u64.u32 %state, %pos;
    add.u64 %state, %state, %seed;
    mul.lo.u64 %state, %state, 25214903917;
    add.u64 %state, %state, 11;
    cvt.u64.u32 %u64t, %window;
    rem.u64 %u64t, %state, %u64t;
    cvt.u32.u64 %crop, %u64t;
    st.shared.u32 [%rctl], %crop;
$L_crop_wait:
    bar.sync 0;
    ld.shared.u32 %crop, [%rctl];

    // -- step 2: average location vectors over the cropped window --
    add.u32 %wend, %window, %window;
    sub.u32 %wend, %wend, %crop;
    mov.u32 %w, %crop;
    mov.f32 %sum, 0f00000000;
    mov.u32 %cw, 0;
$L_win1:
    setp.gt.u32 %p, %w, %wend;
    @%p bra $L_win1_end;
    setp.eq.u32 %p, %w, %window;
    @%p bra $L_win1_next;
    cvt.s32.u32 %c, %pos;
    cvt.s32.u32 %tmps, %window;
    sub.s32 %c, %c, %tmps;
    cvt.s32.u32 %tmps, %w;
    add.s32 %c, %c, %tmps;
    setp.lt.s32 %p, %c, 0;
    @%p bra $L_win1_next;
    setp.ge.s32 %p, %c, %slen;
    @%p bra $L_win1_next;
    add.s32 %tmps, %c, 1;
    mul.wide.s32 %addr, %tmps, 4;
    add.u64 %addr, %rowaddr, %addr;
    ld.global.s32 %tmps, [%addr];
    sub.s32 %tmps, %tmps, 1;
    cvt.u32.s32 %tmp, %tmps;
    mul.lo.u32 %tmp, %tmp, %dims;
    add.u32 %tmp, %tmp, %tid;
    mul.wide.u32 %addr, %tmp, 4;
    add.u64 %addr, %loc, %addr;
    ld.global.f32 %t0, [%addr];
    add.f32 %sum, %sum, %t0;
    add.u32 %cw, %cw, 1;
$L_win1_next:
    add.u32 %w, %w, 1;
    bra $L_win1;
$L_win1_end:
    // empty window (large crop at a boundary): skip the whole unit
    setp.eq.u32 %p, %cw, 0;
    @%p bra $L_done;
    cvt.rn.f32.u32 %cwf, %cw;
    div.approx.f32 %hidden, %sum, %cwf;
    mov.f32 %errf, 0f00000000;

    // -- step 3: positive sample + negs sampled targets --
    mov.u32 %n, 0;
$L_neg:
    setp.gt.u32 %p, %n, %negs;
    @%p bra $L_neg_end;
    setp.ne.u32 %p, %tid, 0;
    @%p bra $L_tgt_wait;
    setp.ne.u32 %q, %n, 0;
    @%q bra $L_tgt_neg;
    st.shared.u32 [%rctl+4], %word;
    mov.u32 %tmp, 1;
    st.shared.u32 [%rctl+12], %tmp;
    bra $L_tgt_wait;
$L_tgt_neg:
    mul.lo.u64 %state, %state, 25214903917;
    add.u64 %state, %state, 11;
    shr.u64 %u64t, %state, 16;
    cvt.u64.u32 %u64t2, %tablelen;
    rem.u64 %u64t, %u64t, %u64t2;
    cvt.u32.u64 %tmp, %u64t;
    mul.wide.u32 %addr, %tmp, 4;
    add.u64 %addr, %table, %addr;
    ld.global.s32 %tmps, [%addr];
    cvt.u32.s32 %tmp, %tmps;
    st.shared.u32 [%rctl+4], %tmp;
    mov.u32 %tmp, 0;
    st.shared.u32 [%rctl+12], %tmp;
$L_tgt_wait:
    bar.sync 0;
    ld.shared.u32 %tgt, [%rctl+4];
    ld.shared.u32 %labelu, [%rctl+12];
    // negative that hit the positive target: skip this sample
    setp.ne.u32 %p, %labelu, 0;
    @%p bra $L_dot;
    setp.eq.u32 %p, %tgt, %word;
    @%p bra $L_iter_end;
$L_dot:
    // activation = dot(hidden, ctx[tgt]) via shared tree reduction
    mul.lo.u32 %tmp, %tgt, %dims;
    add.u32 %tmp, %tmp, %tid;
    mul.wide.u32 %addr, %tmp, 4;
    add.u64 %ctxaddr, %ctx, %addr;
    ld.global.f32 %cval, [%ctxaddr];
    mul.f32 %t0, %hidden, %cval;
    mul.wide.u32 %addr, %tid, 4;
    add.u64 %addr, %rsm, %addr;
    st.shared.f32 [%addr], %t0;
    bar.sync 0;
    shr.u32 %tmp2, %dims, 1;
$L_red:
    setp.eq.u32 %p, %tmp2, 0;
    @%p bra $L_red_end;
    setp.ge.u32 %p, %tid, %tmp2;
    @%p bra $L_red_skip;
    mul.wide.u32 %addr, %tid, 4;
    add.u64 %addr, %rsm, %addr;
    ld.shared.f32 %t0, [%addr];
    add.u32 %tmp, %tid, %tmp2;
    mul.wide.u32 %addr2, %tmp, 4;
    add.u64 %addr2, %rsm, %addr2;
    ld.shared.f32 %t1, [%addr2];
    add.f32 %t0, %t0, %t1;
    st.shared.f32 [%addr], %t0;
$L_red_skip:
    bar.sync 0;
    shr.u32 %tmp2, %tmp2, 1;
    bra $L_red;
$L_red_end:
    ld.shared.f32 %f, [%rsm];

    // saturation guard: +5 for the positive, -5 for negatives
    setp.eq.u32 %p, %labelu, 1;
    setp.gt.f32 %q, %f, 0f40A00000;
    and.pred %p, %p, %q;
    @%p bra $L_iter_end;
    setp.eq.u32 %p, %labelu, 0;
    setp.lt.f32 %q, %f, 0fC0A00000;
    and.pred %p, %p, %q;
    @%p bra $L_iter_end;

    // lane 0: g = (label - sigmoid(f)) * alpha
    setp.ne.u32 %p, %tid, 0;
    @%p bra $L_g_wait;
    mov.f32 %log2e, 0f3FB8AA3B;
    neg.f32 %t0, %f;
    mul.f32 %t0, %t0, %log2e;
    ex2.approx.f32 %t0, %t0;
    add.f32 %t0, %t0, 0f3F800000;
    rcp.approx.f32 %sig, %t0;
    cvt.rn.f32.u32 %labelf, %labelu;
    sub.f32 %t0, %labelf, %sig;
    mul.f32 %t0, %t0, %alpha;
    st.shared.f32 [%rctl+8], %t0;
$L_g_wait:
    bar.sync 0;
    ld.shared.f32 %g, [%rctl+8];

    // err[d] += g*ctx[tgt][d];  ctx[tgt][d] += g*hidden[d]  (in place)
    mul.f32 %t0, %g, %cval;
    add.f32 %errf, %errf, %t0;
    mul.f32 %t1, %g, %hidden;
    add.f32 %cval, %cval, %t1;
    st.global.f32 [%ctxaddr], %cval;
$L_iter_end:
    bar.sync 0;
    add.u32 %n, %n, 1;
    bra $L_neg;
$L_neg_end:

    // -- step 4: propagate the error to every contributing window word --
    mov.u32 %w, %crop;
$L_win2:
    setp.gt.u32 %p, %w, %wend;
    @%p bra $L_done;
    setp.eq.u32 %p, %w, %window;
    @%p bra $L_win2_next;
    cvt.s32.u32 %c, %pos;
    cvt.s32.u32 %tmps, %window;
    sub.s32 %c, %c, %tmps;
    cvt.s32.u32 %tmps, %w;
    add.s32 %c, %c, %tmps;
    setp.lt.s32 %p, %c, 0;
    @%p bra $L_win2_next;
    setp.ge.s32 %p, %c, %slen;
    @%p bra $L_win2_next;
    add.s32 %tmps, %c, 1;
    mul.wide.s32 %addr, %tmps, 4;
    add.u64 %addr, %rowaddr, %addr;
    ld.global.s32 %tmps, [%addr];
    sub.s32 %tmps, %tmps, 1;
    cvt.u32.s32 %tmp, %tmps;
    mul.lo.u32 %tmp, %tmp, %dims;
    add.u32 %tmp, %tmp, %tid;
    mul.wide.u32 %addr, %tmp, 4;
    add.u64 %addr, %loc, %addr;
    ld.global.f32 %t0, [%addr];
    add.f32 %t0, %t0, %errf;
    st.global.f32 [%addr], %t0;
$L_win2_next:
    add.u32 %w, %w, 1;
    bra $L_win2;

$L_done:
    ret;
}
`

// kernelNames lists all kernels in the PTX module.
var kernelNames = []string{
	"cbow_train_f32",
}
